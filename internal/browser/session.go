// Package browser owns the lifecycle of a page producer feeding a relay.
//
// A Session is the single owner of both ends: the producer only ever sees the
// relay's PaintFunc, and teardown is ordered so that no paint call can touch
// the relay after Close returns successfully.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/junsooki/webpane/internal/logging"
	"github.com/junsooki/webpane/internal/relay"
)

// ErrCloseTimeout is returned when the producer does not signal completion
// before the Close context ends.
var ErrCloseTimeout = errors.New("browser: producer did not stop in time")

// Producer paints frames on its own goroutine until closed.
type Producer interface {
	// Start begins delivering frames to paint.
	Start(paint relay.PaintFunc) error
	// Close asks the producer to stop. It must not block on the paint goroutine.
	Close()
	// Done is closed once the producer will never call paint again.
	Done() <-chan struct{}
}

// Session ties a running producer to the relay it paints into.
type Session struct {
	relay    *relay.Relay
	producer Producer
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. nil keeps the session silent.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = logging.OrNop(l) }
}

// Open starts p painting into r.
func Open(r *relay.Relay, p Producer, opts ...Option) (*Session, error) {
	s := &Session{
		relay:    r,
		producer: p,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := p.Start(r.SubmitFrame); err != nil {
		return nil, fmt.Errorf("start producer: %w", err)
	}
	s.logger.Info("browser session opened")
	return s, nil
}

// Relay returns the relay the producer paints into.
func (s *Session) Relay() *relay.Relay {
	return s.relay
}

// Done is closed when the producer stops, whether through Close or on its own.
func (s *Session) Done() <-chan struct{} {
	return s.producer.Done()
}

// Close stops the relay from accepting frames, stops the producer and waits
// for its completion signal or ctx, whichever comes first. Later calls
// return the first call's result.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.relay.Shutdown()
		s.producer.Close()

		select {
		case <-s.producer.Done():
			st := s.relay.Stats()
			s.logger.Info("browser session closed",
				"accepted", st.Accepted,
				"consumed", st.Consumed,
				"dropped", st.Dropped(),
			)
		case <-ctx.Done():
			s.closeErr = fmt.Errorf("%w: %w", ErrCloseTimeout, ctx.Err())
			s.logger.Warn("browser session close timed out", "err", ctx.Err())
		}
	})
	return s.closeErr
}
