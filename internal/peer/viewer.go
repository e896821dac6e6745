package peer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/webpane/internal/transport"
)

// Viewer manages the viewer side of the WebRTC connection.
type Viewer struct {
	pc        *webrtc.PeerConnection
	sig       Signaler
	transport *transport.DataChannelTransport
	hostID    string

	doneOnce sync.Once
	done     chan struct{}
}

// NewViewer creates a Viewer peer manager targeting hostID.
func NewViewer(sig Signaler, hostID string, iceURLs []string) (*Viewer, error) {
	v := &Viewer{
		sig:       sig,
		transport: transport.NewDataChannelTransport(nil, nil),
		hostID:    hostID,
		done:      make(chan struct{}),
	}

	pc, err := NewPeerConnection(iceURLs, func(state webrtc.PeerConnectionState) {
		switch state {
		case webrtc.PeerConnectionStateClosed, webrtc.PeerConnectionStateFailed:
			v.finish()
		}
	})
	if err != nil {
		return nil, err
	}
	v.pc = pc

	// Accept data channels from the host.
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		label := dc.Label()
		slog.Info("data channel received", "label", label)
		dc.OnOpen(func() {
			slog.Info("data channel open", "label", label)
		})
		switch label {
		case transport.FramesLabel:
			v.transport.SetFramesChannel(dc)
		case transport.InputLabel:
			v.transport.SetInputChannel(dc)
		}
	})

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		sendCandidate(sig, hostID, c)
	})

	return v, nil
}

// Transport returns the DataChannelTransport.
func (v *Viewer) Transport() *transport.DataChannelTransport {
	return v.transport
}

// Connect initiates the WebRTC connection by creating and sending an offer.
// The viewer has no media of its own, so the offer must request the host's
// data channels explicitly.
func (v *Viewer) Connect() error {
	// A placeholder channel puts an application section in the offer SDP.
	if _, err := v.pc.CreateDataChannel("negotiate", nil); err != nil {
		return fmt.Errorf("create negotiation channel: %w", err)
	}

	offer, err := v.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}

	if err := v.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return err
	}

	return v.sig.SendOffer(v.hostID, offerJSON)
}

// HandleAnswer processes an incoming SDP answer.
func (v *Viewer) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return fmt.Errorf("decode answer: %w", err)
	}
	return v.pc.SetRemoteDescription(answer)
}

// HandleICECandidate adds a remote ICE candidate.
func (v *Viewer) HandleICECandidate(payload json.RawMessage) error {
	return addRemoteCandidate(v.pc, payload)
}

// Done is closed once the connection is closed or has failed.
func (v *Viewer) Done() <-chan struct{} {
	return v.done
}

func (v *Viewer) finish() {
	v.doneOnce.Do(func() { close(v.done) })
}

// Close shuts down the peer connection.
func (v *Viewer) Close() {
	if v.pc != nil {
		v.pc.Close()
	}
	v.finish()
}
