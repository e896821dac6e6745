package transport

import (
	"sync"

	"github.com/pion/webrtc/v4"
)

// Data channel labels shared by host and viewer.
const (
	FramesLabel = "frames"
	InputLabel  = "input"
)

// DefaultMaxBuffered is the amount of unsent frame data above which SendFrame
// refuses new frames.
const DefaultMaxBuffered = 4 << 20

// dataChannel is the subset of *webrtc.DataChannel the transport uses.
type dataChannel interface {
	Send(data []byte) error
	ReadyState() webrtc.DataChannelState
	BufferedAmount() uint64
	OnMessage(f func(msg webrtc.DataChannelMessage))
}

// DataChannelTransport carries encoded frames and input events over two
// WebRTC data channels.
type DataChannelTransport struct {
	mu       sync.RWMutex
	framesDC dataChannel
	inputDC  dataChannel

	onFrame func(data []byte)
	onInput func(data []byte)

	maxBuffered uint64
}

// NewDataChannelTransport wraps two DataChannels (frames + input). Either may
// be nil and supplied later with SetFramesChannel / SetInputChannel.
func NewDataChannelTransport(framesDC, inputDC *webrtc.DataChannel) *DataChannelTransport {
	t := &DataChannelTransport{maxBuffered: DefaultMaxBuffered}
	if framesDC != nil {
		t.SetFramesChannel(framesDC)
	}
	if inputDC != nil {
		t.SetInputChannel(inputDC)
	}
	return t
}

// SetMaxBuffered changes the congestion threshold for SendFrame.
func (t *DataChannelTransport) SetMaxBuffered(n uint64) {
	t.mu.Lock()
	t.maxBuffered = n
	t.mu.Unlock()
}

func (t *DataChannelTransport) SendFrame(data []byte) error {
	t.mu.RLock()
	dc, limit := t.framesDC, t.maxBuffered
	t.mu.RUnlock()

	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return ErrNotOpen
	}
	if limit > 0 && dc.BufferedAmount() > limit {
		return ErrCongested
	}
	return dc.Send(data)
}

func (t *DataChannelTransport) SendInput(data []byte) error {
	t.mu.RLock()
	dc := t.inputDC
	t.mu.RUnlock()

	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return ErrNotOpen
	}
	return dc.Send(data)
}

func (t *DataChannelTransport) OnFrame(cb func(data []byte)) {
	t.mu.Lock()
	t.onFrame = cb
	t.mu.Unlock()
}

func (t *DataChannelTransport) OnInput(cb func(data []byte)) {
	t.mu.Lock()
	t.onInput = cb
	t.mu.Unlock()
}

// SetFramesChannel sets or replaces the frames DataChannel (used when receiving negotiated channels).
func (t *DataChannelTransport) SetFramesChannel(dc *webrtc.DataChannel) {
	t.setFrames(dc)
}

// SetInputChannel sets or replaces the input DataChannel.
func (t *DataChannelTransport) SetInputChannel(dc *webrtc.DataChannel) {
	t.setInput(dc)
}

func (t *DataChannelTransport) setFrames(dc dataChannel) {
	t.mu.Lock()
	t.framesDC = dc
	t.mu.Unlock()
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.mu.RLock()
		cb := t.onFrame
		t.mu.RUnlock()
		if cb != nil {
			cb(msg.Data)
		}
	})
}

func (t *DataChannelTransport) setInput(dc dataChannel) {
	t.mu.Lock()
	t.inputDC = dc
	t.mu.Unlock()
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.mu.RLock()
		cb := t.onInput
		t.mu.RUnlock()
		if cb != nil {
			cb(msg.Data)
		}
	})
}
