package relay

import (
	"log/slog"
	"time"

	"github.com/junsooki/webpane/internal/logging"
)

// Option configures a Relay.
type Option func(*Relay)

// WithComponents sets the bytes per pixel. Values below 1 are ignored.
func WithComponents(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.components = n
		}
	}
}

// WithMinInterval sets the minimum wall-clock gap between accepted frames.
// Zero disables rate limiting.
func WithMinInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d >= 0 {
			r.minInterval = d
		}
	}
}

// WithSwapRedBlue swaps the first and third byte of every pixel while
// copying, for producers that paint BGRA into an RGBA consumer (or the reverse).
func WithSwapRedBlue(swap bool) Option {
	return func(r *Relay) { r.swapRB = swap }
}

// WithClock replaces time.Now for rate limiting.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger. nil restores the silent default.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) { r.logger = logging.OrNop(l) }
}
