package input

import (
	"math"
	"sync"
)

// Viewport maps between window coordinates and the coordinates of a frame
// letterboxed into that window.
type Viewport struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Fit returns the viewport that fits a frameW x frameH frame inside a
// viewW x viewH window, preserving aspect ratio and centering it.
func Fit(viewW, viewH, frameW, frameH float64) Viewport {
	if frameW <= 0 || frameH <= 0 || viewW <= 0 || viewH <= 0 {
		return Viewport{Scale: 1}
	}
	scale := math.Min(viewW/frameW, viewH/frameH)
	return Viewport{
		Scale:   scale,
		OffsetX: (viewW - frameW*scale) / 2,
		OffsetY: (viewH - frameH*scale) / 2,
	}
}

// ToFrame converts a window point into frame coordinates.
func (v Viewport) ToFrame(x, y float64) (float64, float64) {
	return (x - v.OffsetX) / v.Scale, (y - v.OffsetY) / v.Scale
}

// Contains reports whether a window point lands on the frame.
func (v Viewport) Contains(x, y, frameW, frameH float64) bool {
	fx, fy := v.ToFrame(x, y)
	return fx >= 0 && fy >= 0 && fx < frameW && fy < frameH
}

// WheelMultiplier converts wheel notches into page scroll pixels.
const WheelMultiplier = 30.0

// ScaleWheel converts a window wheel delta into page pixels. Smaller on-screen
// panes scroll proportionally further.
func (v Viewport) ScaleWheel(delta float64) float64 {
	return delta * WheelMultiplier / v.Scale
}

// ToPage rescales the position and scroll deltas of e from a frameW x frameH
// frame into a pageW x pageH page. Non-positive sizes leave e unchanged.
func (e *InputEvent) ToPage(frameW, frameH, pageW, pageH int) {
	if frameW <= 0 || frameH <= 0 || pageW <= 0 || pageH <= 0 {
		return
	}
	if frameW == pageW && frameH == pageH {
		return
	}
	sx := float64(pageW) / float64(frameW)
	sy := float64(pageH) / float64(frameH)
	e.X *= sx
	e.Y *= sy
	e.ScrollDX *= sx
	e.ScrollDY *= sy
}

// PageMapper remembers the size of the last frame sent for a page so input
// expressed in that frame's pixels can be mapped back onto the page. It is
// safe for concurrent use.
type PageMapper struct {
	mu             sync.Mutex
	frameW, frameH int
	pageW, pageH   int
}

// SetFrame records that a pageW x pageH page went out as a frameW x frameH frame.
func (m *PageMapper) SetFrame(frameW, frameH, pageW, pageH int) {
	m.mu.Lock()
	m.frameW, m.frameH, m.pageW, m.pageH = frameW, frameH, pageW, pageH
	m.mu.Unlock()
}

// Map converts evt into page coordinates in place. Before the first
// SetFrame it does nothing.
func (m *PageMapper) Map(evt *InputEvent) {
	m.mu.Lock()
	fw, fh, pw, ph := m.frameW, m.frameH, m.pageW, m.pageH
	m.mu.Unlock()
	evt.ToPage(fw, fh, pw, ph)
}
