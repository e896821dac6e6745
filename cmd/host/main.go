package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/junsooki/webpane/internal/browser"
	"github.com/junsooki/webpane/internal/capture"
	"github.com/junsooki/webpane/internal/config"
	"github.com/junsooki/webpane/internal/encoder"
	"github.com/junsooki/webpane/internal/input"
	"github.com/junsooki/webpane/internal/logging"
	"github.com/junsooki/webpane/internal/page"
	"github.com/junsooki/webpane/internal/peer"
	"github.com/junsooki/webpane/internal/relay"
	"github.com/junsooki/webpane/internal/signaling"
	"github.com/junsooki/webpane/internal/transport"
)

const closeTimeout = 3 * time.Second

// peerSlot holds the currently connected viewer, if any.
type peerSlot struct {
	mu   sync.Mutex
	host *peer.Host
}

func (s *peerSlot) get() *peer.Host {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host
}

// swap installs h and closes the previous peer.
func (s *peerSlot) swap(h *peer.Host) {
	s.mu.Lock()
	prev := s.host
	s.host = h
	s.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

func main() {
	cfg, err := config.ParseHostFlags(os.Args[1:])
	if err != nil {
		slog.Error("invalid flags", "err", err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		slog.Error("logger", "err", err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	logger.Info("webpane host starting",
		"id", cfg.HostID,
		"signaling", cfg.SignalingURL,
		"size", [2]int{cfg.Width, cfg.Height},
		"fps", cfg.FPS,
		"quality", cfg.Quality,
		"frame_interval", cfg.FrameInterval,
	)

	// The page paints BGRA; the relay hands out RGBA.
	rl := relay.New(cfg.Width, cfg.Height,
		relay.WithSwapRedBlue(true),
		relay.WithMinInterval(cfg.FrameInterval),
		relay.WithLogger(logger.With("component", "relay")),
	)
	renderer := page.New(cfg.Width, cfg.Height, page.WithLogger(logger.With("component", "page")))
	sess, err := browser.Open(rl, renderer, browser.WithLogger(logger))
	if err != nil {
		logger.Error("open page", "err", err)
		os.Exit(1)
	}

	capturer, err := capture.NewRelayCapturer(rl, cfg.FPS)
	if err != nil {
		logger.Error("capture init", "err", err)
		os.Exit(1)
	}
	enc := encoder.NewJPEGEncoder(cfg.Quality, encoder.WithMaxWidth(cfg.MaxWidth))

	var slot peerSlot
	var mapper input.PageMapper
	var sig *signaling.Client

	sig = signaling.NewClient(cfg.SignalingURL, cfg.HostID, signaling.ClientTypeHost, signaling.Handler{
		OnRegistered: func() {
			logger.Info("registered with signaling server")
		},
		OnOffer: func(from string, payload json.RawMessage) {
			logger.Info("received offer", "from", from)
			hostPeer, err := peer.NewHost(sig, cfg.ICEURLs)
			if err != nil {
				logger.Error("create host peer", "err", err)
				return
			}
			hostPeer.Transport().OnInput(func(data []byte) {
				handleInput(logger, rl, renderer, &mapper, data)
			})
			if err := hostPeer.HandleOffer(from, payload); err != nil {
				logger.Error("handle offer", "from", from, "err", err)
				hostPeer.Close()
				return
			}
			slot.swap(hostPeer)
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			if h := slot.get(); h != nil {
				if err := h.HandleICECandidate(payload); err != nil {
					logger.Warn("handle ICE candidate", "from", from, "err", err)
				}
			}
		},
		OnError: func(msg string) {
			logger.Warn("signaling error", "msg", msg)
		},
	})

	sig.SetPageSize(cfg.Width, cfg.Height)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sig.ConnectContext(ctx); err != nil {
		logger.Error("signaling connect", "err", err)
		os.Exit(1)
	}
	defer sig.Close()

	if err := capturer.Start(); err != nil {
		logger.Error("capture start", "err", err)
		os.Exit(1)
	}
	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		streamFrames(logger, capturer.Frames(), enc, &slot, &mapper)
	}()

	logger.Info("host ready, share this ID with viewers", "id", cfg.HostID)

	select {
	case <-ctx.Done():
	case <-sig.Done():
		logger.Warn("signaling connection lost")
	}

	logger.Info("shutting down")
	capturer.Stop()
	<-streamDone
	slot.swap(nil)

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := sess.Close(closeCtx); err != nil {
		logger.Error("close page", "err", err)
	}
}

// handleInput applies one event from the viewer to the page. Positions
// arrive in the pixels of the frames the viewer sees, which may be
// downscaled, and are mapped back onto the page first. Resize events also
// resize the relay so stale frames of the old size are dropped.
func handleInput(logger *slog.Logger, rl *relay.Relay, renderer *page.Renderer, mapper *input.PageMapper, data []byte) {
	evt, err := input.Decode(data)
	if err != nil {
		logger.Debug("drop input", "err", err)
		return
	}
	mapper.Map(evt)
	if evt.Type == input.EventResize {
		rl.Resize(evt.Width, evt.Height)
	}
	if err := renderer.Inject(evt); err != nil {
		logger.Debug("inject input", "type", evt.Type, "err", err)
	}
}

func streamFrames(logger *slog.Logger, frames <-chan *capture.Frame, enc encoder.Encoder, slot *peerSlot, mapper *input.PageMapper) {
	for frame := range frames {
		h := slot.get()
		if h == nil {
			continue
		}
		data, err := enc.Encode(frame.Image)
		if err != nil {
			logger.Warn("encode frame", "err", err)
			continue
		}
		err = h.Transport().SendFrame(data)
		if err != nil {
			if !errors.Is(err, transport.ErrNotOpen) && !errors.Is(err, transport.ErrCongested) {
				logger.Debug("send frame", "err", err)
			}
			continue
		}
		ew, eh := enc.OutputSize(frame.Width, frame.Height)
		mapper.SetFrame(ew, eh, frame.Width, frame.Height)
	}
}
