package encoder

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// JPEGEncoder encodes frames as JPEG, optionally downscaling wide frames first.
type JPEGEncoder struct {
	mu       sync.Mutex
	quality  int
	maxWidth int
	scaled   *image.RGBA
}

// Option configures a JPEGEncoder.
type Option func(*JPEGEncoder)

// WithMaxWidth downscales frames wider than n pixels, keeping aspect ratio.
// Zero leaves frames at their native size.
func WithMaxWidth(n int) Option {
	return func(e *JPEGEncoder) {
		if n > 0 {
			e.maxWidth = n
		}
	}
}

// NewJPEGEncoder creates a JPEG encoder with the given quality (1-100).
func NewJPEGEncoder(quality int, opts ...Option) *JPEGEncoder {
	e := &JPEGEncoder{quality: clampQuality(quality)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func clampQuality(q int) int {
	return max(1, min(q, 100))
}

// SetQuality changes the quality used by later Encode calls.
func (e *JPEGEncoder) SetQuality(quality int) {
	e.mu.Lock()
	e.quality = clampQuality(quality)
	e.mu.Unlock()
}

// Quality returns the current quality.
func (e *JPEGEncoder) Quality() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quality
}

func (e *JPEGEncoder) Encode(img *image.RGBA) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	src := e.fit(img)

	var buf bytes.Buffer
	buf.Grow(256 * 1024) // pre-allocate 256KB
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}

// OutputSize returns the size a width x height frame is encoded at.
func (e *JPEGEncoder) OutputSize(width, height int) (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.outputSize(width, height)
}

func (e *JPEGEncoder) outputSize(width, height int) (int, int) {
	if e.maxWidth == 0 || width <= e.maxWidth || width <= 0 {
		return width, height
	}
	return e.maxWidth, max(1, height*e.maxWidth/width)
}

// fit returns img, or a reused downscaled copy when it exceeds maxWidth.
func (e *JPEGEncoder) fit(img *image.RGBA) image.Image {
	b := img.Bounds()
	w, h := e.outputSize(b.Dx(), b.Dy())
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	if e.scaled == nil || e.scaled.Rect.Dx() != w || e.scaled.Rect.Dy() != h {
		e.scaled = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	xdraw.ApproxBiLinear.Scale(e.scaled, e.scaled.Rect, img, b, xdraw.Src, nil)
	return e.scaled
}
