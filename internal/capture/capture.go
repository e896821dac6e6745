package capture

import (
	"image"
	"time"
)

// Frame is one page frame pulled from a relay for encoding.
type Frame struct {
	Image     *image.RGBA
	Width     int
	Height    int
	Timestamp time.Time
}

// Capturer delivers frames on a channel at its own cadence.
type Capturer interface {
	Start() error
	Stop()
	Frames() <-chan *Frame
}
