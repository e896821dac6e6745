// Package remote turns a page streamed by a webpane host into a local
// producer: encoded frames arriving over WebRTC are decoded and painted into
// a relay, and input is forwarded back to the host.
package remote

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/junsooki/webpane/internal/decoder"
	"github.com/junsooki/webpane/internal/input"
	"github.com/junsooki/webpane/internal/logging"
	"github.com/junsooki/webpane/internal/relay"
	"github.com/junsooki/webpane/internal/transport"
)

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("remote: source already started")

// Link is the data path to the host.
type Link interface {
	transport.FrameReceiver
	transport.InputSender
}

// Conn is the underlying connection, closed when the source is closed.
// *peer.Viewer satisfies it.
type Conn interface {
	Close()
	Done() <-chan struct{}
}

// Source is a relay producer fed by a remote host.
type Source struct {
	link    Link
	conn    Conn
	dec     decoder.Decoder
	forward *input.Forwarder
	logger  *slog.Logger

	mu       sync.Mutex
	paint    relay.PaintFunc
	started  bool
	stopped  bool
	inflight sync.WaitGroup

	doneOnce sync.Once
	done     chan struct{}

	decodeErrors atomic.Uint64
}

// Option configures a Source.
type Option func(*Source)

// WithDecoder replaces the default JPEG decoder.
func WithDecoder(d decoder.Decoder) Option {
	return func(s *Source) { s.dec = d }
}

// WithLogger sets the logger. nil keeps the source silent.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) { s.logger = logging.OrNop(l) }
}

// New creates a Source reading frames from link and owning conn.
func New(link Link, conn Conn, opts ...Option) *Source {
	s := &Source{
		link:    link,
		conn:    conn,
		dec:     decoder.NewJPEGDecoder(),
		forward: input.NewForwarder(link),
		logger:  logging.Nop(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers for incoming frames and paints each decoded one.
func (s *Source) Start(paint relay.PaintFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.paint = paint
	if s.stopped {
		return nil
	}
	s.link.OnFrame(s.handleFrame)
	go s.watch()
	return nil
}

func (s *Source) handleFrame(data []byte) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	paint := s.paint
	s.mu.Unlock()
	defer s.inflight.Done()

	img, err := s.dec.Decode(data)
	if err != nil {
		if s.decodeErrors.Add(1) == 1 {
			s.logger.Warn("remote frame decode failed", "err", err)
		}
		return
	}
	b := img.Bounds()
	paint(img.Pix, b.Dx(), b.Dy())
}

// watch waits for the connection to end, then for in-flight paints.
func (s *Source) watch() {
	<-s.conn.Done()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.inflight.Wait()
	s.finish()
}

func (s *Source) finish() {
	s.doneOnce.Do(func() {
		s.logger.Info("remote source finished", "decode_errors", s.decodeErrors.Load())
		close(s.done)
	})
}

// Inject forwards an input event to the host.
func (s *Source) Inject(evt *input.InputEvent) error {
	return s.forward.Inject(evt)
}

// Close stops painting and closes the connection. It does not wait.
func (s *Source) Close() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	s.mu.Unlock()

	s.link.OnFrame(nil)
	s.conn.Close()
	if !started {
		s.finish()
	}
}

// Done is closed once no further paint calls will happen.
func (s *Source) Done() <-chan struct{} {
	return s.done
}

// DecodeErrors returns how many frames failed to decode.
func (s *Source) DecodeErrors() uint64 {
	return s.decodeErrors.Load()
}
