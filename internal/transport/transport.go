package transport

import "errors"

var (
	// ErrNotOpen is returned when sending on a channel that is missing or not yet open.
	ErrNotOpen = errors.New("transport: data channel not open")

	// ErrCongested is returned when a frame is refused because the channel
	// still holds too much unsent data. Callers drop the frame; the next one
	// supersedes it.
	ErrCongested = errors.New("transport: frames channel congested")
)

// FrameSender sends encoded frames.
type FrameSender interface {
	SendFrame(data []byte) error
}

// FrameReceiver receives encoded frames.
type FrameReceiver interface {
	OnFrame(callback func(data []byte))
}

// InputSender sends serialized input events.
type InputSender interface {
	SendInput(data []byte) error
}

// InputReceiver receives serialized input events.
type InputReceiver interface {
	OnInput(callback func(data []byte))
}
