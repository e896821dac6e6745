package page

import (
	"image"
	"image/draw"

	"github.com/gogpu/gg"
)

const (
	headerHeight = 40.0
	bandHeight   = 28.0
	contentPages = 4
	cursorRadius = 8.0
)

// bgr builds a gg color with red and blue exchanged. Frames leave the
// renderer in BGRA byte order, as a browser engine's paint callback would.
func bgr(r, g, b float64) gg.RGBA {
	return gg.RGB(b, g, r)
}

func setBGR(dc *gg.Context, r, g, b float64) {
	dc.SetRGB(b, g, r)
}

// Render paints one frame and returns its BGRA bytes and size.
func (r *Renderer) Render() (pix []byte, width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, h := r.st.Width, r.st.Height
	if r.dc == nil {
		r.dc = gg.NewContext(w, h)
	}
	dc := r.dc
	r.st.Frames++

	dc.ClearWithColor(bgr(0.96, 0.96, 0.97))
	r.drawContent(dc, float64(w), float64(h))
	r.drawHeader(dc, float64(w))
	r.drawProgress(dc, float64(w), float64(h))
	r.drawCursor(dc)

	_ = dc.FlushGPU()
	return packed(dc.Image()), w, h
}

// drawContent paints alternating bands standing in for lines of text,
// offset by the scroll position.
func (r *Renderer) drawContent(dc *gg.Context, w, h float64) {
	first := int(r.st.Scroll / bandHeight)
	for i := first; ; i++ {
		y := headerHeight + float64(i)*bandHeight - r.st.Scroll
		if y > h {
			break
		}
		if i%2 == 0 {
			setBGR(dc, 0.86, 0.89, 0.94)
		} else {
			setBGR(dc, 0.92, 0.94, 0.97)
		}
		// Vary line lengths so scrolling is visible.
		lineW := w * (0.45 + 0.5*float64((i*37)%11)/10)
		dc.DrawRectangle(16, y+6, min(lineW, w-32), bandHeight-12)
		_ = dc.Fill()
	}
}

// drawHeader paints the title bar: red when unfocused, blue when focused,
// with one swatch per typed character.
func (r *Renderer) drawHeader(dc *gg.Context, w float64) {
	if r.st.Focused {
		setBGR(dc, 0, 0, 1)
	} else {
		setBGR(dc, 1, 0, 0)
	}
	dc.DrawRectangle(0, 0, w, headerHeight)
	_ = dc.Fill()

	x := 48.0
	for _, ch := range r.typed {
		if x+10 > w {
			break
		}
		v := float64(ch%64) / 63
		setBGR(dc, 1, v, 1-v)
		dc.DrawRoundedRectangle(x, 12, 8, 16, 2)
		_ = dc.Fill()
		x += 11
	}
}

// drawProgress animates a bar along the bottom edge so consecutive frames differ.
func (r *Renderer) drawProgress(dc *gg.Context, w, h float64) {
	const period = 120
	frac := float64(r.st.Frames%period) / period
	setBGR(dc, 0.2, 0.6, 0.3)
	dc.DrawRectangle(0, h-4, w*frac, 4)
	_ = dc.Fill()
}

func (r *Renderer) drawCursor(dc *gg.Context) {
	dc.DrawCircle(r.st.CursorX, r.st.CursorY, cursorRadius)
	if r.st.Pressed {
		setBGR(dc, 0.9, 0.3, 0.1)
		_ = dc.Fill()
		return
	}
	setBGR(dc, 0.1, 0.1, 0.1)
	dc.SetLineWidth(2)
	_ = dc.Stroke()
}

// packed returns the pixel bytes of img as a tightly packed 4-byte-per-pixel slice.
func packed(img image.Image) []byte {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == b.Dx()*4 && b.Min == (image.Point{}) {
		return rgba.Pix
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst.Pix
}
