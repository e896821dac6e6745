package display

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/junsooki/webpane/internal/input"
)

var vkCodes = buildVKCodes()

func buildVKCodes() map[ebiten.Key]uint16 {
	m := map[ebiten.Key]uint16{
		ebiten.KeyBackspace: input.VKBack, ebiten.KeyTab: input.VKTab,
		ebiten.KeyEnter: input.VKReturn, ebiten.KeyEscape: input.VKEscape,
		ebiten.KeySpace: input.VKSpace,
		ebiten.KeyShiftLeft: input.VKShift, ebiten.KeyShiftRight: input.VKShift,
		ebiten.KeyControlLeft: input.VKControl, ebiten.KeyControlRight: input.VKControl,
		ebiten.KeyAltLeft: input.VKMenu, ebiten.KeyAltRight: input.VKMenu,
		ebiten.KeyCapsLock: input.VKCapital,
		ebiten.KeyPageUp: input.VKPrior, ebiten.KeyPageDown: input.VKNext,
		ebiten.KeyEnd: input.VKEnd, ebiten.KeyHome: input.VKHome,
		ebiten.KeyArrowLeft: input.VKLeft, ebiten.KeyArrowUp: input.VKUp,
		ebiten.KeyArrowRight: input.VKRight, ebiten.KeyArrowDown: input.VKDown,
		ebiten.KeyInsert: input.VKInsert, ebiten.KeyDelete: input.VKDelete,
	}

	letters := []ebiten.Key{
		ebiten.KeyA, ebiten.KeyB, ebiten.KeyC, ebiten.KeyD, ebiten.KeyE, ebiten.KeyF,
		ebiten.KeyG, ebiten.KeyH, ebiten.KeyI, ebiten.KeyJ, ebiten.KeyK, ebiten.KeyL,
		ebiten.KeyM, ebiten.KeyN, ebiten.KeyO, ebiten.KeyP, ebiten.KeyQ, ebiten.KeyR,
		ebiten.KeyS, ebiten.KeyT, ebiten.KeyU, ebiten.KeyV, ebiten.KeyW, ebiten.KeyX,
		ebiten.KeyY, ebiten.KeyZ,
	}
	for i, k := range letters {
		m[k] = input.VKA + uint16(i)
	}

	digits := []ebiten.Key{
		ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
		ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
	}
	for i, k := range digits {
		m[k] = input.VK0 + uint16(i)
	}

	fkeys := []ebiten.Key{
		ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3, ebiten.KeyF4, ebiten.KeyF5, ebiten.KeyF6,
		ebiten.KeyF7, ebiten.KeyF8, ebiten.KeyF9, ebiten.KeyF10, ebiten.KeyF11, ebiten.KeyF12,
	}
	for i, k := range fkeys {
		m[k] = input.VKF1 + uint16(i)
	}
	return m
}

// ebitenKeyToVK maps Ebitengine key codes to Windows virtual key codes.
func ebitenKeyToVK(k ebiten.Key) uint16 {
	if code, ok := vkCodes[k]; ok {
		return code
	}
	return input.VKUnmapped
}

// isAggregate reports whether k is one of ebiten's either-side modifier keys,
// which are reported alongside their left or right variant.
func isAggregate(k ebiten.Key) bool {
	switch k {
	case ebiten.KeyShift, ebiten.KeyControl, ebiten.KeyAlt, ebiten.KeyMeta:
		return true
	}
	return false
}
