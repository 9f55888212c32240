package peer

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/glimshow/internal/signaling"
	"github.com/junsooki/glimshow/internal/transport"
)

// Viewer manages the screen side of the WebRTC connection. It answers
// offers from a source and receives the source's data channels.
type Viewer struct {
	pc         *webrtc.PeerConnection
	sig        *signaling.Client
	transport  *transport.DataChannelTransport
	candidates remoteCandidates

	mu       sync.Mutex
	sourceID string
}

// NewViewer creates a Viewer peer manager.
func NewViewer(sig *signaling.Client) (*Viewer, error) {
	pc, err := NewPeerConnection()
	if err != nil {
		return nil, err
	}

	v := &Viewer{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannelTransport(nil, nil),
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		log.Printf("data channel received: %s", dc.Label())
		switch dc.Label() {
		case transport.LabelFrames:
			v.transport.SetFramesChannel(dc)
		case transport.LabelControl:
			v.transport.SetControlChannel(dc)
		default:
			log.Printf("ignoring data channel %q", dc.Label())
		}
	})

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		source := v.Source()
		if source == "" {
			return
		}
		sendCandidate(c, func(data json.RawMessage) error {
			return sig.SendICECandidate(source, data)
		})
	})

	return v, nil
}

// Transport returns the DataChannelTransport for receiving frames and
// exchanging control messages.
func (v *Viewer) Transport() *transport.DataChannelTransport {
	return v.transport
}

// Source returns the ID of the source that made the current offer.
func (v *Viewer) Source() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sourceID
}

// HandleOffer processes an incoming offer from a source.
func (v *Viewer) HandleOffer(from string, payload json.RawMessage) error {
	v.mu.Lock()
	v.sourceID = from
	v.mu.Unlock()

	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return err
	}
	if err := v.pc.SetRemoteDescription(offer); err != nil {
		return err
	}
	v.candidates.flush(v.pc)

	answer, err := v.pc.CreateAnswer(nil)
	if err != nil {
		return err
	}
	if err := v.pc.SetLocalDescription(answer); err != nil {
		return err
	}
	answerJSON, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return v.sig.SendAnswer(from, answerJSON)
}

// HandleICECandidate adds a remote ICE candidate.
func (v *Viewer) HandleICECandidate(payload json.RawMessage) error {
	return v.candidates.add(v.pc, payload)
}

// Close shuts down the peer connection.
func (v *Viewer) Close() {
	if v.pc != nil {
		v.pc.Close()
	}
}
