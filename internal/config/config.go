package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/junsooki/webpane/internal/logging"
	"github.com/junsooki/webpane/internal/peer"
	"github.com/junsooki/webpane/internal/relay"
)

// Frame sources for the viewer.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// Common holds the settings shared by every binary.
type Common struct {
	LogLevel  string
	LogFormat string
}

func (c *Common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFormat, "log-format", "text", "Log format (text, json)")
}

func (c *Common) validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Page holds the settings of a page rendered behind a relay.
type Page struct {
	Width         int
	Height        int
	FrameInterval time.Duration
}

func (p *Page) register(fs *flag.FlagSet) {
	fs.IntVar(&p.Width, "width", 1280, "Page width in pixels")
	fs.IntVar(&p.Height, "height", 720, "Page height in pixels")
	fs.DurationVar(&p.FrameInterval, "frame-interval", relay.DefaultMinInterval, "Minimum gap between accepted frames (0 disables)")
}

func (p *Page) validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("page size must be positive, got %dx%d", p.Width, p.Height)
	}
	if p.FrameInterval < 0 {
		return fmt.Errorf("frame interval must not be negative, got %s", p.FrameInterval)
	}
	return nil
}

// HostConfig holds configuration for the host binary.
type HostConfig struct {
	Common
	Page
	SignalingURL string
	HostID       string
	FPS          int
	Quality      int
	MaxWidth     int
	ICEURLs      []string
}

// ParseHostFlags parses args for the host binary.
func ParseHostFlags(args []string) (*HostConfig, error) {
	cfg := &HostConfig{}
	fs := flag.NewFlagSet("host", flag.ContinueOnError)
	cfg.Common.register(fs)
	cfg.Page.register(fs)
	fs.StringVar(&cfg.SignalingURL, "signaling", "ws://localhost:8080", "Signaling server WebSocket URL")
	fs.StringVar(&cfg.HostID, "id", "", "Host ID (auto-generated if empty)")
	fs.IntVar(&cfg.FPS, "fps", 30, "Frames per second sent to the viewer")
	fs.IntVar(&cfg.Quality, "quality", 70, "JPEG quality (1-100)")
	fs.IntVar(&cfg.MaxWidth, "max-width", 0, "Downscale frames wider than this before encoding (0 = never)")
	stun := fs.String("stun", strings.Join(peer.DefaultSTUN, ","), "Comma-separated ICE server URLs")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.HostID == "" {
		cfg.HostID = "host-" + shortID()
	}
	cfg.ICEURLs = splitList(*stun)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *HostConfig) Validate() error {
	var errs []error
	errs = append(errs, c.Common.validate(), c.Page.validate())
	if c.SignalingURL == "" {
		errs = append(errs, errors.New("signaling URL is required"))
	}
	if c.FPS <= 0 || c.FPS > 60 {
		errs = append(errs, fmt.Errorf("fps must be 1-60, got %d", c.FPS))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality must be 1-100, got %d", c.Quality))
	}
	if c.MaxWidth < 0 {
		errs = append(errs, fmt.Errorf("max width must not be negative, got %d", c.MaxWidth))
	}
	return errors.Join(errs...)
}

// ViewerConfig holds configuration for the viewer binary.
type ViewerConfig struct {
	Common
	Page
	Source          string
	RefreshInterval time.Duration
	Opacity         float64

	// Remote source only.
	SignalingURL string
	ViewerID     string
	HostID       string
	ICEURLs      []string
}

// ParseViewerFlags parses args for the viewer binary.
func ParseViewerFlags(args []string) (*ViewerConfig, error) {
	cfg := &ViewerConfig{}
	fs := flag.NewFlagSet("viewer", flag.ContinueOnError)
	cfg.Common.register(fs)
	cfg.Page.register(fs)
	fs.StringVar(&cfg.Source, "source", SourceLocal, "Frame source (local, remote)")
	fs.DurationVar(&cfg.RefreshInterval, "refresh-interval", 32*time.Millisecond, "How often the window pulls a frame (0 = every tick)")
	fs.Float64Var(&cfg.Opacity, "opacity", 0.95, "Page opacity (0-1)")
	fs.StringVar(&cfg.SignalingURL, "signaling", "ws://localhost:8080", "Signaling server WebSocket URL")
	fs.StringVar(&cfg.ViewerID, "id", "", "Viewer ID (auto-generated if empty)")
	fs.StringVar(&cfg.HostID, "host", "", "Host ID to connect to (remote source)")
	stun := fs.String("stun", strings.Join(peer.DefaultSTUN, ","), "Comma-separated ICE server URLs")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.ViewerID == "" {
		cfg.ViewerID = "viewer-" + shortID()
	}
	cfg.ICEURLs = splitList(*stun)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ViewerConfig) Validate() error {
	var errs []error
	errs = append(errs, c.Common.validate(), c.Page.validate())
	switch c.Source {
	case SourceLocal:
	case SourceRemote:
		if c.HostID == "" {
			errs = append(errs, errors.New("-host is required with -source remote"))
		}
		if c.SignalingURL == "" {
			errs = append(errs, errors.New("signaling URL is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("source must be %s or %s, got %q", SourceLocal, SourceRemote, c.Source))
	}
	if c.RefreshInterval < 0 {
		errs = append(errs, fmt.Errorf("refresh interval must not be negative, got %s", c.RefreshInterval))
	}
	if c.Opacity < 0 || c.Opacity > 1 {
		errs = append(errs, fmt.Errorf("opacity must be within 0-1, got %g", c.Opacity))
	}
	return errors.Join(errs...)
}

// SignalConfig holds configuration for the signaling server binary.
type SignalConfig struct {
	Common
	Addr string
}

// ParseSignalFlags parses args for the signaling server binary.
func ParseSignalFlags(args []string) (*SignalConfig, error) {
	cfg := &SignalConfig{}
	fs := flag.NewFlagSet("signal", flag.ContinueOnError)
	cfg.Common.register(fs)
	fs.StringVar(&cfg.Addr, "addr", ":8080", "Listen address")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *SignalConfig) Validate() error {
	if c.Addr == "" {
		return errors.Join(c.Common.validate(), errors.New("listen address is required"))
	}
	return c.Common.validate()
}

// shortID returns the first eight hex digits of a random UUID.
func shortID() string {
	return uuid.NewString()[:8]
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
