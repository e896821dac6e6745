package peer

import (
	"encoding/json"
	"log/slog"

	"github.com/pion/webrtc/v4"
)

// DefaultSTUN is used when no ICE servers are configured.
var DefaultSTUN = []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}

// Signaler is the part of the signaling client a peer needs.
type Signaler interface {
	SendOffer(target string, payload json.RawMessage) error
	SendAnswer(target string, payload json.RawMessage) error
	SendICECandidate(target string, payload json.RawMessage) error
}

// NewPeerConnection creates a PeerConnection using the given STUN/TURN URLs.
// onState, if non-nil, observes connection state changes.
func NewPeerConnection(iceURLs []string, onState func(webrtc.PeerConnectionState)) (*webrtc.PeerConnection, error) {
	if len(iceURLs) == 0 {
		iceURLs = DefaultSTUN
	}
	cfg := webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: iceURLs}},
	}
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.Info("peer connection state", "state", state.String())
		if onState != nil {
			onState(state)
		}
	})
	return pc, nil
}

// sendCandidate forwards a local ICE candidate to target.
func sendCandidate(sig Signaler, target string, c *webrtc.ICECandidate) {
	if c == nil || target == "" {
		return
	}
	data, err := json.Marshal(c.ToJSON())
	if err != nil {
		slog.Warn("marshal ICE candidate", "err", err)
		return
	}
	if err := sig.SendICECandidate(target, data); err != nil {
		slog.Warn("send ICE candidate", "target", target, "err", err)
	}
}

func addRemoteCandidate(pc *webrtc.PeerConnection, payload json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return err
	}
	return pc.AddICECandidate(candidate)
}
