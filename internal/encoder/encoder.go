// Package encoder compresses relay frames for the frames data channel.
package encoder

import "image"

// Encoder compresses one RGBA frame. Quality is codec specific; for JPEG it
// runs from 1 to 100.
type Encoder interface {
	Encode(img *image.RGBA) ([]byte, error)
	SetQuality(quality int)
	Quality() int
	// OutputSize returns the size a width x height frame is encoded at.
	OutputSize(width, height int) (int, int)
}

var _ Encoder = (*JPEGEncoder)(nil)
