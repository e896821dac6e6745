package display

import (
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/junsooki/webpane/internal/input"
	"github.com/junsooki/webpane/internal/logging"
	"github.com/junsooki/webpane/internal/relay"
)

// DefaultRefreshInterval is how often the pane pulls a frame from its relay.
const DefaultRefreshInterval = 32 * time.Millisecond

// DefaultOpacity is the alpha applied to the page texture.
const DefaultOpacity = 0.95

var (
	_ Display     = (*Pane)(nil)
	_ ebiten.Game = (*Pane)(nil)
)

// Pane renders the frames of a relay using Ebitengine and captures input.
type Pane struct {
	relay   *relay.Relay
	sink    textureSink
	onInput InputCallback
	// onResize receives the new window size in pixels.
	onResize func(w, h int)
	done     <-chan struct{}
	logger   *slog.Logger

	title           string
	winW, winH      int
	opacity         float64
	refreshInterval time.Duration

	lastRefresh time.Time
	visible     bool

	screenW, screenH int
	prevMouseX       int
	prevMouseY       int
	focused          bool

	keys  []ebiten.Key
	chars []rune
}

// PaneOption configures a Pane.
type PaneOption func(*Pane)

// WithRefreshInterval sets how often Update consumes from the relay. It is
// independent of the relay's own rate limit. Zero consumes every tick.
func WithRefreshInterval(d time.Duration) PaneOption {
	return func(p *Pane) {
		if d >= 0 {
			p.refreshInterval = d
		}
	}
}

// WithInput sets the callback receiving captured input.
func WithInput(cb InputCallback) PaneOption {
	return func(p *Pane) { p.onInput = cb }
}

// WithResize sets the callback fired when the window size changes.
func WithResize(cb func(w, h int)) PaneOption {
	return func(p *Pane) { p.onResize = cb }
}

// WithDone ends Run once done is closed.
func WithDone(done <-chan struct{}) PaneOption {
	return func(p *Pane) { p.done = done }
}

// WithTitle sets the window title.
func WithTitle(title string) PaneOption {
	return func(p *Pane) { p.title = title }
}

// WithWindowSize sets the initial window size. Non-positive sizes are ignored.
func WithWindowSize(w, h int) PaneOption {
	return func(p *Pane) {
		if w > 0 && h > 0 {
			p.winW, p.winH = w, h
		}
	}
}

// WithOpacity sets the texture alpha, clamped to [0, 1].
func WithOpacity(a float64) PaneOption {
	return func(p *Pane) { p.opacity = max(0, min(a, 1)) }
}

// WithLogger sets the logger. nil keeps the pane silent.
func WithLogger(l *slog.Logger) PaneOption {
	return func(p *Pane) { p.logger = logging.OrNop(l) }
}

// NewPane creates a pane that consumes frames from r.
func NewPane(r *relay.Relay, opts ...PaneOption) *Pane {
	p := &Pane{
		relay:           r,
		logger:          logging.Nop(),
		title:           "webpane",
		winW:            1280,
		winH:            720,
		opacity:         DefaultOpacity,
		refreshInterval: DefaultRefreshInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts the Ebitengine game loop. Must be called from the main goroutine.
func (p *Pane) Run() error {
	ebiten.SetWindowSize(p.winW, p.winH)
	ebiten.SetWindowTitle(p.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetRunnableOnUnfocused(true)
	return ebiten.RunGame(p)
}

// --- ebiten.Game interface ---

func (p *Pane) Update() error {
	select {
	case <-p.done:
		return ebiten.Termination
	default:
	}
	p.refresh()
	p.captureFocus()
	p.captureMouseInput()
	p.captureKeyboardInput()
	return nil
}

// refresh pulls the latest frame into the texture when the refresh interval
// has elapsed.
func (p *Pane) refresh() {
	now := time.Now()
	if p.refreshInterval > 0 && !p.lastRefresh.IsZero() && now.Sub(p.lastRefresh) < p.refreshInterval {
		return
	}
	p.lastRefresh = now
	p.relay.ConsumeInto(&p.sink)

	if !p.visible && p.relay.IsReady() && p.sink.img != nil {
		p.visible = true
		w, h := p.relay.Size()
		p.logger.Info("pane visible", "width", w, "height", h)
	}
}

func (p *Pane) Draw(screen *ebiten.Image) {
	if !p.visible {
		return
	}
	tex := p.sink.img
	b := tex.Bounds()
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	vp := input.Fit(float64(sw), float64(sh), float64(b.Dx()), float64(b.Dy()))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(vp.Scale, vp.Scale)
	op.GeoM.Translate(vp.OffsetX, vp.OffsetY)
	op.ColorScale.ScaleAlpha(float32(p.opacity))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(tex, op)
}

func (p *Pane) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != p.screenW || outsideHeight != p.screenH {
		p.screenW, p.screenH = outsideWidth, outsideHeight
		if p.onResize != nil && outsideWidth > 0 && outsideHeight > 0 {
			p.onResize(outsideWidth, outsideHeight)
		}
	}
	return outsideWidth, outsideHeight
}

// --- Input capture ---

// viewport returns the mapping from window to page coordinates, and false
// while no frame is on screen.
func (p *Pane) viewport() (input.Viewport, float64, float64, bool) {
	if !p.visible {
		return input.Viewport{}, 0, 0, false
	}
	b := p.sink.img.Bounds()
	fw, fh := float64(b.Dx()), float64(b.Dy())
	return input.Fit(float64(p.screenW), float64(p.screenH), fw, fh), fw, fh, true
}

func (p *Pane) captureFocus() {
	if f := ebiten.IsFocused(); f != p.focused {
		p.focused = f
		p.emit(&input.InputEvent{Type: input.EventFocus, Focused: f})
	}
}

func (p *Pane) captureMouseInput() {
	vp, fw, fh, ok := p.viewport()
	if !ok {
		return
	}
	mx, my := ebiten.CursorPosition()
	x, y := vp.ToFrame(float64(mx), float64(my))
	inside := vp.Contains(float64(mx), float64(my), fw, fh)

	// Mouse move.
	if mx != p.prevMouseX || my != p.prevMouseY {
		p.prevMouseX, p.prevMouseY = mx, my
		if inside {
			p.emit(&input.InputEvent{Type: input.EventMouseMove, X: x, Y: y, Modifiers: currentModifiers()})
		}
	}

	// Mouse buttons.
	buttons := []struct {
		eb  ebiten.MouseButton
		btn input.MouseButton
	}{
		{ebiten.MouseButtonLeft, input.MouseButtonLeft},
		{ebiten.MouseButtonRight, input.MouseButtonRight},
		{ebiten.MouseButtonMiddle, input.MouseButtonMiddle},
	}
	for _, b := range buttons {
		if inside && inpututil.IsMouseButtonJustPressed(b.eb) {
			p.emit(&input.InputEvent{Type: input.EventMouseDown, X: x, Y: y, Button: b.btn, Modifiers: currentModifiers()})
		}
		// Releases are forwarded even outside the page so drags end cleanly.
		if inpututil.IsMouseButtonJustReleased(b.eb) {
			p.emit(&input.InputEvent{Type: input.EventMouseUp, X: x, Y: y, Button: b.btn, Modifiers: currentModifiers()})
		}
	}

	// Scroll.
	if dx, dy := ebiten.Wheel(); inside && (dx != 0 || dy != 0) {
		p.emit(&input.InputEvent{
			Type:      input.EventMouseScroll,
			X:         x,
			Y:         y,
			ScrollDX:  vp.ScaleWheel(dx),
			ScrollDY:  vp.ScaleWheel(dy),
			Modifiers: currentModifiers(),
		})
	}
}

func (p *Pane) captureKeyboardInput() {
	if !p.visible {
		return
	}
	mods := currentModifiers()

	p.keys = inpututil.AppendJustPressedKeys(p.keys[:0])
	for _, k := range p.keys {
		if isAggregate(k) {
			continue
		}
		p.emit(&input.InputEvent{Type: input.EventKeyDown, KeyCode: ebitenKeyToVK(k), Modifiers: mods})
	}
	p.keys = inpututil.AppendJustReleasedKeys(p.keys[:0])
	for _, k := range p.keys {
		if isAggregate(k) {
			continue
		}
		p.emit(&input.InputEvent{Type: input.EventKeyUp, KeyCode: ebitenKeyToVK(k), Modifiers: mods})
	}

	p.chars = ebiten.AppendInputChars(p.chars[:0])
	for _, ch := range p.chars {
		p.emit(&input.InputEvent{Type: input.EventChar, Char: ch, Modifiers: mods})
	}
}

func (p *Pane) emit(evt *input.InputEvent) {
	if p.onInput != nil {
		p.onInput(evt)
	}
}

func currentModifiers() uint8 {
	var m uint8
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		m |= input.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		m |= input.ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		m |= input.ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		m |= input.ModMeta
	}
	if ebiten.IsKeyPressed(ebiten.KeyCapsLock) {
		m |= input.ModCapsLock
	}
	return m
}
