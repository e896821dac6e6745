package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/junsooki/webpane/internal/relay"
)

// ErrRunning is returned by Start on a capturer that is already running.
var ErrRunning = errors.New("capture: already running")

var _ Capturer = (*RelayCapturer)(nil)

// RelayCapturer is the consumer side of a relay on a streaming host: at a
// fixed rate it drains the relay and emits each new frame as a copy.
type RelayCapturer struct {
	relay   *relay.Relay
	fps     int
	frameCh chan *Frame
	stopCh  chan struct{}

	mu      sync.Mutex
	running bool
	stopped bool
}

// NewRelayCapturer creates a capturer pulling from r at fps frames per second.
func NewRelayCapturer(r *relay.Relay, fps int) (*RelayCapturer, error) {
	if fps <= 0 || fps > 60 {
		return nil, fmt.Errorf("fps must be 1-60, got %d", fps)
	}
	return &RelayCapturer{
		relay:   r,
		fps:     fps,
		frameCh: make(chan *Frame, 2),
		stopCh:  make(chan struct{}),
	}, nil
}

func (c *RelayCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || c.stopped {
		return ErrRunning
	}
	c.running = true
	go c.loop()
	return nil
}

func (c *RelayCapturer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || c.stopped {
		return
	}
	c.stopped = true
	close(c.stopCh)
}

// Frames is closed after Stop once the loop exits.
func (c *RelayCapturer) Frames() <-chan *Frame {
	return c.frameCh
}

func (c *RelayCapturer) loop() {
	ticker := time.NewTicker(time.Second / time.Duration(c.fps))
	defer ticker.Stop()
	defer close(c.frameCh)

	var sink relay.ImageSink
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			f := c.capture(&sink)
			if f == nil {
				continue
			}
			select {
			case c.frameCh <- f:
			default:
			}
		}
	}
}

// capture returns a copy of the relay's pending frame, or nil when nothing
// new has been painted.
func (c *RelayCapturer) capture(sink *relay.ImageSink) *Frame {
	if !c.relay.ConsumeInto(sink) {
		return nil
	}
	src := sink.Image()
	img := &image.RGBA{
		Pix:    append([]byte(nil), src.Pix...),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	return &Frame{
		Image:     img,
		Width:     src.Rect.Dx(),
		Height:    src.Rect.Dy(),
		Timestamp: time.Now(),
	}
}
