package peer

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/webpane/internal/transport"
)

// Host manages the page host side of the WebRTC connection.
type Host struct {
	pc        *webrtc.PeerConnection
	sig       Signaler
	transport *transport.DataChannelTransport

	mu     sync.Mutex
	peerID string // the viewer we're connected to
}

// NewHost creates a Host peer manager with its frames and input channels.
func NewHost(sig Signaler, iceURLs []string) (*Host, error) {
	pc, err := NewPeerConnection(iceURLs, nil)
	if err != nil {
		return nil, err
	}

	h := &Host{
		pc:  pc,
		sig: sig,
	}

	// Frames are latest-wins: unordered and never retransmitted.
	framesOrdered := false
	framesMaxRetransmits := uint16(0)
	framesDC, err := pc.CreateDataChannel(transport.FramesLabel, &webrtc.DataChannelInit{
		Ordered:        &framesOrdered,
		MaxRetransmits: &framesMaxRetransmits,
	})
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("create frames channel: %w", err)
	}

	inputOrdered := true
	inputDC, err := pc.CreateDataChannel(transport.InputLabel, &webrtc.DataChannelInit{
		Ordered: &inputOrdered,
	})
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("create input channel: %w", err)
	}

	h.transport = transport.NewDataChannelTransport(framesDC, inputDC)

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		sendCandidate(sig, h.PeerID(), c)
	})

	return h, nil
}

// Transport returns the DataChannelTransport for sending frames and receiving input.
func (h *Host) Transport() *transport.DataChannelTransport {
	return h.transport
}

// PeerID returns the viewer this host answered, or "" before an offer.
func (h *Host) PeerID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.peerID
}

// HandleOffer processes an incoming offer from a viewer.
func (h *Host) HandleOffer(from string, payload json.RawMessage) error {
	h.mu.Lock()
	h.peerID = from
	h.mu.Unlock()

	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return fmt.Errorf("decode offer: %w", err)
	}

	if err := h.pc.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}

	answer, err := h.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}

	if err := h.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	answerJSON, err := json.Marshal(answer)
	if err != nil {
		return err
	}

	return h.sig.SendAnswer(from, answerJSON)
}

// HandleICECandidate adds a remote ICE candidate.
func (h *Host) HandleICECandidate(payload json.RawMessage) error {
	return addRemoteCandidate(h.pc, payload)
}

// Close shuts down the peer connection.
func (h *Host) Close() {
	if h.pc != nil {
		h.pc.Close()
	}
}
