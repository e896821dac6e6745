// Package relay hands the latest rendered frame from a producer goroutine to a
// consumer running on its own cadence.
//
// Only the newest frame matters: submissions that arrive faster than the
// configured minimum interval are dropped, and a frame the consumer never
// reads is simply overwritten. Submit, resize and consume all serialize on a
// single mutex, so a consumer never observes a buffer mid-copy or mid-resize.
package relay

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/junsooki/webpane/internal/logging"
)

const (
	// DefaultMinInterval caps accepted submissions at roughly 30 fps.
	DefaultMinInterval = 32 * time.Millisecond

	// DefaultComponents is the number of bytes per pixel (BGRA/RGBA).
	DefaultComponents = 4
)

// PaintFunc is the callback a producer invokes with each complete frame.
// (*Relay).SubmitFrame satisfies it.
type PaintFunc func(pix []byte, width, height int)

// Sink receives the buffered frame during ConsumeInto. pix is only valid for
// the duration of the call and must not be retained.
type Sink interface {
	WriteFrame(pix []byte, width, height int)
}

// Relay is a guarded single-frame buffer between one producer and one consumer.
type Relay struct {
	mu         sync.Mutex
	buf        []byte
	width      int
	height     int
	components int
	dirty      bool
	ready      bool
	lastAccept time.Time
	stats      Stats

	shutdown atomic.Bool

	minInterval time.Duration
	swapRB      bool
	now         func() time.Time
	logger      *slog.Logger
}

// New creates a relay holding a zeroed width x height frame.
func New(width, height int, opts ...Option) *Relay {
	r := &Relay{
		width:       width,
		height:      height,
		components:  DefaultComponents,
		minInterval: DefaultMinInterval,
		now:         time.Now,
		logger:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.buf = make([]byte, r.frameLen(width, height))
	return r
}

func (r *Relay) frameLen(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return width * height * r.components
}

// SubmitFrame copies pix into the buffer unless the relay is shutting down or
// the previous accepted frame is younger than the minimum interval. pix must
// hold width*height*components bytes; shorter or longer slices are a caller
// bug and are copied up to the shorter length.
func (r *Relay) SubmitFrame(pix []byte, width, height int) {
	if r.shutdown.Load() {
		r.mu.Lock()
		r.stats.DroppedShutdown++
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Shutdown may have landed while we waited for the lock.
	if r.shutdown.Load() {
		r.stats.DroppedShutdown++
		return
	}

	now := r.now()
	if r.minInterval > 0 && !r.lastAccept.IsZero() && now.Sub(r.lastAccept) < r.minInterval {
		r.stats.DroppedRate++
		return
	}

	if width != r.width || height != r.height {
		r.reallocLocked(width, height)
	}

	if r.swapRB {
		copySwapRB(r.buf, pix, r.components)
	} else {
		copy(r.buf, pix)
	}

	r.dirty = true
	r.ready = true
	r.lastAccept = now
	r.stats.Accepted++
}

// Resize reallocates the buffer when the dimensions change. The previous
// frame is discarded along with its dirty state.
func (r *Relay) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if width == r.width && height == r.height {
		return
	}
	r.reallocLocked(width, height)
	r.dirty = false
}

func (r *Relay) reallocLocked(width, height int) {
	r.logger.Debug("relay buffer realloc",
		"from_w", r.width, "from_h", r.height,
		"to_w", width, "to_h", height)
	r.width = width
	r.height = height
	r.buf = make([]byte, r.frameLen(width, height))
	r.stats.Reallocations++
}

// ConsumeInto hands the buffered frame to sink if a new one is pending and
// reports whether it did. A second call with no submission in between is a
// no-op.
func (r *Relay) ConsumeInto(sink Sink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.dirty {
		return false
	}
	sink.WriteFrame(r.buf, r.width, r.height)
	r.dirty = false
	r.stats.Consumed++
	return true
}

// IsReady reports whether any frame has been accepted since creation.
func (r *Relay) IsReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// Dirty reports whether an unread frame is pending.
func (r *Relay) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

// Size returns the current frame dimensions.
func (r *Relay) Size() (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// Components returns the bytes per pixel.
func (r *Relay) Components() int {
	return r.components
}

// Shutdown permanently stops accepting frames. It is idempotent and never
// blocks on the producer; consumers may still drain a pending frame.
func (r *Relay) Shutdown() {
	if r.shutdown.CompareAndSwap(false, true) {
		r.logger.Info("relay shutting down")
	}
}

// IsShuttingDown reports whether Shutdown has been called.
func (r *Relay) IsShuttingDown() bool {
	return r.shutdown.Load()
}

// copySwapRB copies src into dst exchanging bytes 0 and 2 of every pixel in a
// single sequential pass.
func copySwapRB(dst, src []byte, components int) {
	n := min(len(dst), len(src))
	if components < 3 {
		copy(dst, src[:n])
		return
	}
	n -= n % components
	for i := 0; i < n; i += components {
		dst[i] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i]
		for c := 3; c < components; c++ {
			dst[i+c] = src[i+c]
		}
	}
}
