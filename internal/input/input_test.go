package input

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitLetterbox(t *testing.T) {
	tests := []struct {
		name              string
		viewW, viewH      float64
		frameW, frameH    float64
		scale, offX, offY float64
	}{
		{"same size", 640, 480, 640, 480, 1, 0, 0},
		{"wide window", 1280, 480, 640, 480, 1, 320, 0},
		{"tall window", 640, 960, 640, 480, 1, 0, 240},
		{"downscale", 320, 240, 640, 480, 0.5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Fit(tt.viewW, tt.viewH, tt.frameW, tt.frameH)
			assert.InDelta(t, tt.scale, v.Scale, 1e-9)
			assert.InDelta(t, tt.offX, v.OffsetX, 1e-9)
			assert.InDelta(t, tt.offY, v.OffsetY, 1e-9)
		})
	}
}

func TestFitDegenerate(t *testing.T) {
	v := Fit(0, 0, 640, 480)
	assert.Equal(t, 1.0, v.Scale)
}

func TestToFrameAndContains(t *testing.T) {
	v := Fit(1280, 480, 640, 480)

	x, y := v.ToFrame(320, 10)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 10, y, 1e-9)

	assert.True(t, v.Contains(400, 100, 640, 480))
	assert.False(t, v.Contains(100, 100, 640, 480), "left letterbox bar")
	assert.False(t, v.Contains(1000, 100, 640, 480), "right letterbox bar")
}

func TestScaleWheel(t *testing.T) {
	v := Fit(320, 240, 640, 480)
	assert.InDelta(t, 60, v.ScaleWheel(1), 1e-9)
	assert.InDelta(t, -30, Fit(640, 480, 640, 480).ScaleWheel(-1), 1e-9)
}

func TestDecode(t *testing.T) {
	evt, err := Decode([]byte(`{"type":"mouse_down","x":10,"y":20,"button":1}`))
	require.NoError(t, err)
	assert.Equal(t, EventMouseDown, evt.Type)
	assert.Equal(t, MouseButtonRight, evt.Button)

	evt, err = Decode([]byte(`{"type":"resize","width":800,"height":600}`))
	require.NoError(t, err)
	assert.Equal(t, 800, evt.Width)

	_, err = Decode([]byte(`{"type":"resize","width":0,"height":600}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"type":"teleport"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

type fakeSender struct {
	sent [][]byte
	err  error
}

func (s *fakeSender) SendInput(data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, data)
	return nil
}

func TestForwarder(t *testing.T) {
	s := &fakeSender{}
	f := NewForwarder(s)

	require.NoError(t, f.Inject(&InputEvent{Type: EventChar, Char: 'x', Modifiers: ModShift | ModCapsLock}))
	require.Len(t, s.sent, 1)

	var got InputEvent
	require.NoError(t, json.Unmarshal(s.sent[0], &got))
	assert.Equal(t, EventChar, got.Type)
	assert.Equal(t, 'x', got.Char)
	assert.Equal(t, uint8(17), got.Modifiers)

	s.err = errors.New("channel closed")
	assert.ErrorIs(t, f.Inject(&InputEvent{Type: EventKeyDown}), s.err)
}

func TestInjectorFunc(t *testing.T) {
	var seen EventType
	var inj Injector = InjectorFunc(func(e *InputEvent) error {
		seen = e.Type
		return nil
	})
	require.NoError(t, inj.Inject(&InputEvent{Type: EventFocus, Focused: true}))
	assert.Equal(t, EventFocus, seen)
}

func TestToPageRescalesDownscaledFrame(t *testing.T) {
	evt := &InputEvent{Type: EventMouseScroll, X: 320, Y: 180, ScrollDX: 15, ScrollDY: -30}
	evt.ToPage(640, 360, 1280, 720)
	assert.Equal(t, 640.0, evt.X)
	assert.Equal(t, 360.0, evt.Y)
	assert.Equal(t, 30.0, evt.ScrollDX)
	assert.Equal(t, -60.0, evt.ScrollDY)

	same := &InputEvent{X: 10, Y: 20}
	same.ToPage(100, 100, 100, 100)
	assert.Equal(t, 10.0, same.X)

	same.ToPage(0, 0, 100, 100)
	assert.Equal(t, 10.0, same.X, "unknown frame size leaves the event alone")
}

func TestPageMapper(t *testing.T) {
	var m PageMapper

	evt := &InputEvent{Type: EventMouseMove, X: 50, Y: 40}
	m.Map(evt)
	assert.Equal(t, 50.0, evt.X, "no frame recorded yet")

	m.SetFrame(400, 300, 800, 600)
	m.Map(evt)
	assert.Equal(t, 100.0, evt.X)
	assert.Equal(t, 80.0, evt.Y)

	resize := &InputEvent{Type: EventResize, Width: 1024, Height: 768}
	m.Map(resize)
	assert.Equal(t, 1024, resize.Width, "window sizes are not rescaled")
}
