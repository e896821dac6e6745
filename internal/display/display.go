// Package display shows a relay's frames in an ebiten window and turns the
// window's mouse and keyboard activity into page input events.
package display

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/junsooki/webpane/internal/input"
)

// Display renders frames and captures user input.
type Display interface {
	Run() error
}

// InputCallback is called on the game goroutine for every captured event.
type InputCallback func(evt *input.InputEvent)

// textureSink uploads consumed frames into a GPU texture, reallocating it
// when the frame size changes.
type textureSink struct {
	img *ebiten.Image
}

func (s *textureSink) WriteFrame(pix []byte, width, height int) {
	if width <= 0 || height <= 0 || len(pix) < width*height*4 {
		return
	}
	if s.img != nil {
		b := s.img.Bounds()
		if b.Dx() != width || b.Dy() != height {
			s.img.Deallocate()
			s.img = nil
		}
	}
	if s.img == nil {
		s.img = ebiten.NewImage(width, height)
	}
	s.img.WritePixels(pix[:width*height*4])
}
