package transport

import (
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDC struct {
	state    webrtc.DataChannelState
	buffered uint64
	sent     [][]byte
	onMsg    func(msg webrtc.DataChannelMessage)
}

func (f *fakeDC) Send(data []byte) error {
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeDC) ReadyState() webrtc.DataChannelState { return f.state }
func (f *fakeDC) BufferedAmount() uint64              { return f.buffered }

func (f *fakeDC) OnMessage(cb func(msg webrtc.DataChannelMessage)) { f.onMsg = cb }

func TestSendRequiresOpenChannel(t *testing.T) {
	tr := NewDataChannelTransport(nil, nil)
	assert.ErrorIs(t, tr.SendFrame([]byte("f")), ErrNotOpen)
	assert.ErrorIs(t, tr.SendInput([]byte("i")), ErrNotOpen)

	dc := &fakeDC{state: webrtc.DataChannelStateConnecting}
	tr.setFrames(dc)
	assert.ErrorIs(t, tr.SendFrame([]byte("f")), ErrNotOpen)

	dc.state = webrtc.DataChannelStateOpen
	require.NoError(t, tr.SendFrame([]byte("f")))
	assert.Len(t, dc.sent, 1)
}

func TestSendFrameCongestion(t *testing.T) {
	tr := NewDataChannelTransport(nil, nil)
	tr.SetMaxBuffered(10)

	dc := &fakeDC{state: webrtc.DataChannelStateOpen, buffered: 11}
	tr.setFrames(dc)
	assert.ErrorIs(t, tr.SendFrame([]byte("f")), ErrCongested)

	dc.buffered = 10
	assert.NoError(t, tr.SendFrame([]byte("f")))

	tr.SetMaxBuffered(0)
	dc.buffered = 1 << 30
	assert.NoError(t, tr.SendFrame([]byte("f")), "zero disables the limit")
}

func TestCallbacksDispatch(t *testing.T) {
	tr := NewDataChannelTransport(nil, nil)
	frames := &fakeDC{state: webrtc.DataChannelStateOpen}
	inputs := &fakeDC{state: webrtc.DataChannelStateOpen}
	tr.setFrames(frames)
	tr.setInput(inputs)

	// No callback registered yet: must not panic.
	frames.onMsg(webrtc.DataChannelMessage{Data: []byte("early")})

	var gotFrame, gotInput []byte
	tr.OnFrame(func(data []byte) { gotFrame = data })
	tr.OnInput(func(data []byte) { gotInput = data })

	frames.onMsg(webrtc.DataChannelMessage{Data: []byte("frame")})
	inputs.onMsg(webrtc.DataChannelMessage{Data: []byte("input")})

	assert.Equal(t, []byte("frame"), gotFrame)
	assert.Equal(t, []byte("input"), gotInput)

	require.NoError(t, tr.SendInput([]byte("key")))
	assert.Equal(t, [][]byte{[]byte("key")}, inputs.sent)
}
