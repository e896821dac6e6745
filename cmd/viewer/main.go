package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/junsooki/webpane/internal/browser"
	"github.com/junsooki/webpane/internal/config"
	"github.com/junsooki/webpane/internal/display"
	"github.com/junsooki/webpane/internal/input"
	"github.com/junsooki/webpane/internal/logging"
	"github.com/junsooki/webpane/internal/page"
	"github.com/junsooki/webpane/internal/peer"
	"github.com/junsooki/webpane/internal/relay"
	"github.com/junsooki/webpane/internal/remote"
	"github.com/junsooki/webpane/internal/signaling"
)

const closeTimeout = 3 * time.Second

// source is a frame producer the pane can also send input to.
type source interface {
	browser.Producer
	input.Injector
}

func main() {
	cfg, err := config.ParseViewerFlags(os.Args[1:])
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

	logger.Info("webpane viewer starting",
		"id", cfg.ViewerID,
		"source", cfg.Source,
		"frame_interval", cfg.FrameInterval,
		"refresh_interval", cfg.RefreshInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		src      source
		relayOpt = []relay.Option{
			relay.WithMinInterval(cfg.FrameInterval),
			relay.WithLogger(logger.With("component", "relay")),
		}
		onResize func(w, h int)
		cleanup  = func() {}
	)

	switch cfg.Source {
	case config.SourceLocal:
		// The page paints BGRA; the pane uploads RGBA.
		relayOpt = append(relayOpt, relay.WithSwapRedBlue(true))
		src = page.New(cfg.Width, cfg.Height, page.WithLogger(logger.With("component", "page")))
	case config.SourceRemote:
		rs, closeRemote, err := dialRemote(ctx, cfg, logger)
		if err != nil {
			logger.Error("connect to host", "host", cfg.HostID, "err", err)
			os.Exit(1)
		}
		src, cleanup = rs, closeRemote
	}
	defer cleanup()

	rl := relay.New(cfg.Width, cfg.Height, relayOpt...)
	if cfg.Source == config.SourceLocal {
		onResize = func(w, h int) { rl.Resize(w, h) }
	}

	sess, err := browser.Open(rl, src, browser.WithLogger(logger))
	if err != nil {
		logger.Error("open page", "err", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-ctx.Done():
		case <-sess.Done():
			logger.Warn("page source ended")
		}
	}()

	inject := func(evt *input.InputEvent) {
		if err := src.Inject(evt); err != nil {
			logger.Debug("inject input", "type", evt.Type, "err", err)
		}
	}
	pane := display.NewPane(rl,
		display.WithTitle("webpane"),
		display.WithWindowSize(cfg.Width, cfg.Height),
		display.WithRefreshInterval(cfg.RefreshInterval),
		display.WithOpacity(cfg.Opacity),
		display.WithInput(inject),
		display.WithResize(func(w, h int) {
			if onResize != nil {
				onResize(w, h)
			}
			inject(&input.InputEvent{Type: input.EventResize, Width: w, Height: h})
		}),
		display.WithDone(done),
		display.WithLogger(logger.With("component", "pane")),
	)

	// Ebitengine RunGame must be on the main goroutine.
	if err := pane.Run(); err != nil {
		logger.Error("display", "err", err)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := sess.Close(closeCtx); err != nil {
		logger.Error("close page", "err", err)
	}
}

// dialRemote registers with the signaling server and offers a connection to
// the configured host. The returned source paints the host's frames.
func dialRemote(ctx context.Context, cfg *config.ViewerConfig, logger *slog.Logger) (*remote.Source, func(), error) {
	var v *peer.Viewer
	var sig *signaling.Client

	sig = signaling.NewClient(cfg.SignalingURL, cfg.ViewerID, signaling.ClientTypeViewer, signaling.Handler{
		OnRegistered: func() {
			logger.Info("registered with signaling server")
			if err := v.Connect(); err != nil {
				logger.Error("viewer connect", "err", err)
			}
		},
		OnAnswer: func(from string, payload json.RawMessage) {
			if err := v.HandleAnswer(payload); err != nil {
				logger.Error("handle answer", "from", from, "err", err)
			}
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			if err := v.HandleICECandidate(payload); err != nil {
				logger.Warn("handle ICE candidate", "from", from, "err", err)
			}
		},
		OnHostsUpdated: func(hosts []signaling.HostInfo) {
			for _, h := range hosts {
				if h.ID == cfg.HostID {
					logger.Info("host online", "host", h.ID, "width", h.Width, "height", h.Height)
				}
			}
		},
		OnHostDisconnected: func(hostID string) {
			if hostID == cfg.HostID {
				logger.Warn("host disconnected", "host", hostID)
				v.Close()
			}
		},
		OnError: func(msg string) {
			logger.Warn("signaling error", "msg", msg)
		},
	})

	v, err := peer.NewViewer(sig, cfg.HostID, cfg.ICEURLs)
	if err != nil {
		return nil, nil, err
	}
	if err := sig.ConnectContext(ctx); err != nil {
		v.Close()
		return nil, nil, err
	}

	src := remote.New(v.Transport(), v, remote.WithLogger(logger.With("component", "remote")))
	return src, func() {
		v.Close()
		sig.Close()
	}, nil
}
