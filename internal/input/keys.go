package input

// Windows virtual key codes. Browser engines key their events on these, so
// they are the KeyCode values carried in InputEvent.
const (
	VKBack     uint16 = 0x08
	VKTab      uint16 = 0x09
	VKReturn   uint16 = 0x0D
	VKShift    uint16 = 0x10
	VKControl  uint16 = 0x11
	VKMenu     uint16 = 0x12
	VKCapital  uint16 = 0x14
	VKEscape   uint16 = 0x1B
	VKSpace    uint16 = 0x20
	VKPrior    uint16 = 0x21 // page up
	VKNext     uint16 = 0x22 // page down
	VKEnd      uint16 = 0x23
	VKHome     uint16 = 0x24
	VKLeft     uint16 = 0x25
	VKUp       uint16 = 0x26
	VKRight    uint16 = 0x27
	VKDown     uint16 = 0x28
	VKInsert   uint16 = 0x2D
	VKDelete   uint16 = 0x2E
	VK0        uint16 = 0x30 // '0'..'9' follow
	VKA        uint16 = 0x41 // 'A'..'Z' follow
	VKF1       uint16 = 0x70 // F1..F12 follow
	VKUnmapped uint16 = 0xFF
)
