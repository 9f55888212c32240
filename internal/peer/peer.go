package peer

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/pion/webrtc/v4"
)

// ICEServers is the default ICE server configuration.
var ICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}},
}

// NewPeerConnection creates a configured PeerConnection.
func NewPeerConnection() (*webrtc.PeerConnection, error) {
	cfg := webrtc.Configuration{
		ICEServers: ICEServers,
	}
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Printf("peer connection state: %s", state.String())
	})
	return pc, nil
}

// remoteCandidates holds ICE candidates that arrive over signaling before
// the remote description is set.
type remoteCandidates struct {
	mu      sync.Mutex
	ready   bool
	pending []webrtc.ICECandidateInit
}

func (r *remoteCandidates) add(pc *webrtc.PeerConnection, payload json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return err
	}
	r.mu.Lock()
	if !r.ready {
		r.pending = append(r.pending, candidate)
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()
	return pc.AddICECandidate(candidate)
}

// flush is called once the remote description is set.
func (r *remoteCandidates) flush(pc *webrtc.PeerConnection) {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.ready = true
	r.mu.Unlock()
	for _, c := range pending {
		if err := pc.AddICECandidate(c); err != nil {
			log.Printf("add ICE candidate: %v", err)
		}
	}
}

func sendCandidate(c *webrtc.ICECandidate, send func(json.RawMessage) error) {
	if c == nil {
		return
	}
	data, err := json.Marshal(c.ToJSON())
	if err != nil {
		log.Printf("marshal ICE candidate: %v", err)
		return
	}
	_ = send(data)
}
