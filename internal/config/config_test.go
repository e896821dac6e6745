package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHostFlagsDefaults(t *testing.T) {
	cfg, err := ParseHostFlags(nil)
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8080", cfg.SignalingURL)
	assert.Regexp(t, `^host-[0-9a-f]{8}$`, cfg.HostID)
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, 70, cfg.Quality)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.Equal(t, 32*time.Millisecond, cfg.FrameInterval)
	assert.Len(t, cfg.ICEURLs, 2)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseHostFlagsOverrides(t *testing.T) {
	cfg, err := ParseHostFlags([]string{
		"-id", "desk", "-fps", "15", "-quality", "50", "-max-width", "960",
		"-frame-interval", "0", "-stun", " stun:a:1 , ,stun:b:2",
		"-log-level", "debug", "-log-format", "json",
	})
	require.NoError(t, err)

	assert.Equal(t, "desk", cfg.HostID)
	assert.Equal(t, 15, cfg.FPS)
	assert.Equal(t, 960, cfg.MaxWidth)
	assert.Zero(t, cfg.FrameInterval)
	assert.Equal(t, []string{"stun:a:1", "stun:b:2"}, cfg.ICEURLs)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestHostIDsAreUnique(t *testing.T) {
	a, err := ParseHostFlags(nil)
	require.NoError(t, err)
	b, err := ParseHostFlags(nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.HostID, b.HostID)
}

func TestHostValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"fps too high", []string{"-fps", "61"}},
		{"fps zero", []string{"-fps", "0"}},
		{"quality", []string{"-quality", "101"}},
		{"width", []string{"-width", "0"}},
		{"interval", []string{"-frame-interval", "-1ms"}},
		{"log level", []string{"-log-level", "loud"}},
		{"log format", []string{"-log-format", "xml"}},
		{"max width", []string{"-max-width", "-5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHostFlags(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseViewerFlags(t *testing.T) {
	cfg, err := ParseViewerFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, cfg.Source)
	assert.Equal(t, 32*time.Millisecond, cfg.RefreshInterval)
	assert.Equal(t, 0.95, cfg.Opacity)
	assert.Regexp(t, `^viewer-[0-9a-f]{8}$`, cfg.ViewerID)

	cfg, err = ParseViewerFlags([]string{"-source", "remote", "-host", "host-1", "-refresh-interval", "16ms", "-frame-interval", "50ms"})
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, cfg.Source)
	assert.Equal(t, "host-1", cfg.HostID)
	assert.Equal(t, 16*time.Millisecond, cfg.RefreshInterval)
	assert.Equal(t, 50*time.Millisecond, cfg.FrameInterval, "frame and refresh intervals are independent")
}

func TestViewerValidate(t *testing.T) {
	_, err := ParseViewerFlags([]string{"-source", "remote"})
	assert.ErrorContains(t, err, "-host is required")

	_, err = ParseViewerFlags([]string{"-source", "carrier-pigeon"})
	assert.Error(t, err)

	_, err = ParseViewerFlags([]string{"-opacity", "1.5"})
	assert.Error(t, err)

	_, err = ParseViewerFlags([]string{"-refresh-interval", "-1s"})
	assert.Error(t, err)
}

func TestParseSignalFlags(t *testing.T) {
	cfg, err := ParseSignalFlags([]string{"-addr", "127.0.0.1:9000"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)

	_, err = ParseSignalFlags([]string{"-addr", ""})
	assert.Error(t, err)
}

func TestUnknownFlag(t *testing.T) {
	_, err := ParseSignalFlags([]string{"-bogus"})
	assert.Error(t, err)
}
