// Package page is an off-screen page renderer. It plays the part of an
// embedded browser engine: it paints complete BGRA frames on its own
// goroutine and cadence, and reacts to forwarded input.
package page

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gg"

	"github.com/junsooki/webpane/internal/input"
	"github.com/junsooki/webpane/internal/logging"
	"github.com/junsooki/webpane/internal/relay"
)

var (
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("page: renderer already started")

	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("page: renderer closed")

	// ErrNilEvent is returned by Inject for a nil event.
	ErrNilEvent = errors.New("page: nil input event")
)

// DefaultFPS is the paint cadence. It is deliberately faster than a relay's
// default cap so the relay's throttle is what bounds copies.
const DefaultFPS = 60

// maxTyped bounds the typed-character history shown in the header.
const maxTyped = 48

// State is a snapshot of the page as driven by input.
type State struct {
	Width, Height    int
	CursorX, CursorY float64
	Pressed          bool
	Focused          bool
	Scroll           float64
	Clicks           int
	Typed            string
	Frames           uint64
}

// Renderer paints a synthetic page into BGRA frames.
type Renderer struct {
	mu      sync.Mutex
	st      State
	typed   []rune
	dc      *gg.Context
	started bool
	closed  bool

	fps    int
	logger *slog.Logger

	stop chan struct{}
	done chan struct{}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFPS sets the paint cadence. Values outside 1-240 are ignored.
func WithFPS(fps int) Option {
	return func(r *Renderer) {
		if fps > 0 && fps <= 240 {
			r.fps = fps
		}
	}
}

// WithLogger sets the logger. nil keeps the renderer silent.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.logger = logging.OrNop(l) }
}

// New creates a renderer for a width x height page.
func New(width, height int, opts ...Option) *Renderer {
	r := &Renderer{
		st:     State{Width: max(1, width), Height: max(1, height)},
		fps:    DefaultFPS,
		logger: logging.Nop(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins painting on a new goroutine, handing each frame to paint.
func (r *Renderer) Start(paint relay.PaintFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.started {
		return ErrAlreadyStarted
	}
	r.started = true
	r.logger.Info("page renderer started", "width", r.st.Width, "height", r.st.Height, "fps", r.fps)
	go r.loop(paint)
	return nil
}

func (r *Renderer) loop(paint relay.PaintFunc) {
	defer close(r.done)

	ticker := time.NewTicker(time.Second / time.Duration(r.fps))
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			r.logger.Info("page renderer stopped", "frames", r.Snapshot().Frames)
			return
		case <-ticker.C:
			pix, w, h := r.Render()
			paint(pix, w, h)
		}
	}
}

// Close stops painting. It does not wait; Done is closed once the paint
// goroutine has returned and will never call paint again.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	close(r.stop)
	if !r.started {
		close(r.done)
	}
}

// Done is closed exactly once, after the last paint call has returned.
func (r *Renderer) Done() <-chan struct{} {
	return r.done
}

// Resize changes the size of subsequent frames.
func (r *Renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resizeLocked(width, height)
}

func (r *Renderer) resizeLocked(width, height int) {
	if width <= 0 || height <= 0 || (width == r.st.Width && height == r.st.Height) {
		return
	}
	r.logger.Debug("page resized", "width", width, "height", height)
	r.st.Width, r.st.Height = width, height
	r.st.Scroll = r.clampScroll(r.st.Scroll)
	if r.dc != nil {
		r.dc.Close()
		r.dc = nil
	}
}

// Snapshot returns the current page state.
func (r *Renderer) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.st
	st.Typed = string(r.typed)
	return st
}

// Inject applies a forwarded input event to the page.
func (r *Renderer) Inject(evt *input.InputEvent) error {
	if evt == nil {
		return ErrNilEvent
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	switch evt.Type {
	case input.EventMouseMove:
		r.st.CursorX, r.st.CursorY = evt.X, evt.Y
	case input.EventMouseDown:
		r.st.CursorX, r.st.CursorY = evt.X, evt.Y
		r.st.Pressed = true
		r.st.Clicks++
	case input.EventMouseUp:
		r.st.CursorX, r.st.CursorY = evt.X, evt.Y
		r.st.Pressed = false
	case input.EventMouseScroll:
		// Positive wheel deltas scroll toward the top of the page.
		r.st.Scroll = r.clampScroll(r.st.Scroll - evt.ScrollDY)
	case input.EventKeyDown:
		r.keyDownLocked(evt.KeyCode)
	case input.EventKeyUp:
	case input.EventChar:
		if evt.Char >= ' ' {
			r.typed = append(r.typed, evt.Char)
			if len(r.typed) > maxTyped {
				r.typed = r.typed[len(r.typed)-maxTyped:]
			}
		}
	case input.EventFocus:
		r.st.Focused = evt.Focused
	case input.EventResize:
		r.resizeLocked(evt.Width, evt.Height)
	default:
		return fmt.Errorf("page: unsupported input event %q", evt.Type)
	}
	return nil
}

func (r *Renderer) keyDownLocked(code uint16) {
	const line = 40.0
	page := float64(r.st.Height)
	switch code {
	case input.VKUp:
		r.st.Scroll = r.clampScroll(r.st.Scroll - line)
	case input.VKDown:
		r.st.Scroll = r.clampScroll(r.st.Scroll + line)
	case input.VKPrior:
		r.st.Scroll = r.clampScroll(r.st.Scroll - page)
	case input.VKNext:
		r.st.Scroll = r.clampScroll(r.st.Scroll + page)
	case input.VKHome:
		r.st.Scroll = 0
	case input.VKEnd:
		r.st.Scroll = r.clampScroll(r.contentHeight())
	case input.VKBack:
		if n := len(r.typed); n > 0 {
			r.typed = r.typed[:n-1]
		}
	}
}

func (r *Renderer) contentHeight() float64 {
	return float64(r.st.Height) * contentPages
}

func (r *Renderer) clampScroll(s float64) float64 {
	return max(0, min(s, r.contentHeight()-float64(r.st.Height)))
}
