package input

import (
	"encoding/json"
	"fmt"
)

// EventType identifies the kind of input event.
type EventType string

const (
	EventMouseMove   EventType = "mouse_move"
	EventMouseDown   EventType = "mouse_down"
	EventMouseUp     EventType = "mouse_up"
	EventMouseScroll EventType = "mouse_scroll"
	EventKeyDown     EventType = "key_down"
	EventKeyUp       EventType = "key_up"
	EventChar        EventType = "char"
	EventFocus       EventType = "focus"
	EventResize      EventType = "resize"
)

// MouseButton identifies a mouse button.
type MouseButton int

const (
	MouseButtonLeft   MouseButton = 0
	MouseButtonRight  MouseButton = 1
	MouseButtonMiddle MouseButton = 2
)

// Modifier flags carried in InputEvent.Modifiers.
const (
	ModShift    uint8 = 1 << iota // 1
	ModCtrl                       // 2
	ModAlt                        // 4
	ModMeta                       // 8
	ModCapsLock                   // 16
)

// InputEvent is the wire format for input events forwarded to a page,
// locally or over the input data channel. X and Y are page coordinates.
type InputEvent struct {
	Type    EventType   `json:"type"`
	X       float64     `json:"x,omitempty"`
	Y       float64     `json:"y,omitempty"`
	Button  MouseButton `json:"button,omitempty"`
	KeyCode uint16      `json:"keyCode,omitempty"`
	// Char is the typed rune for EventChar.
	Char      rune    `json:"char,omitempty"`
	Modifiers uint8   `json:"modifiers,omitempty"`
	ScrollDX  float64 `json:"scrollDX,omitempty"`
	ScrollDY  float64 `json:"scrollDY,omitempty"`
	// Focused is set for EventFocus.
	Focused bool `json:"focused,omitempty"`
	// Width and Height are set for EventResize.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Decode parses a JSON-encoded event and rejects unknown types.
func Decode(data []byte) (*InputEvent, error) {
	var evt InputEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("decode input event: %w", err)
	}
	switch evt.Type {
	case EventMouseMove, EventMouseDown, EventMouseUp, EventMouseScroll,
		EventKeyDown, EventKeyUp, EventChar, EventFocus:
	case EventResize:
		if evt.Width <= 0 || evt.Height <= 0 {
			return nil, fmt.Errorf("resize event with invalid size %dx%d", evt.Width, evt.Height)
		}
	default:
		return nil, fmt.Errorf("unknown input event type %q", evt.Type)
	}
	return &evt, nil
}
