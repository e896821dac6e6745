package relay

import "image"

// ImageSink copies consumed frames into an owned *image.RGBA, reallocating it
// when the frame size changes. It is not safe for concurrent use; it belongs
// to the consumer goroutine.
type ImageSink struct {
	img    *image.RGBA
	frames uint64
}

// WriteFrame implements Sink. Frames are assumed to carry four bytes per pixel.
func (s *ImageSink) WriteFrame(pix []byte, width, height int) {
	if s.img == nil || s.img.Rect.Dx() != width || s.img.Rect.Dy() != height {
		s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	copy(s.img.Pix, pix)
	s.frames++
}

// Image returns the last written frame, or nil before the first write. The
// image is reused by later writes.
func (s *ImageSink) Image() *image.RGBA {
	return s.img
}

// Frames returns how many frames have been written.
func (s *ImageSink) Frames() uint64 {
	return s.frames
}
