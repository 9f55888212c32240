package peer

import (
	"encoding/json"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/glimshow/internal/signaling"
	"github.com/junsooki/glimshow/internal/transport"
)

const gatherTimeout = 5 * time.Second

// Source manages the frame-producing side of the WebRTC connection. It
// creates both data channels and offers them to one viewer.
type Source struct {
	pc         *webrtc.PeerConnection
	sig        *signaling.Client
	transport  *transport.DataChannelTransport
	candidates remoteCandidates
	viewerID   string
}

// NewSource creates a Source peer manager for viewerID.
func NewSource(sig *signaling.Client, viewerID string) (*Source, error) {
	pc, err := NewPeerConnection()
	if err != nil {
		return nil, err
	}

	// Both channels are ordered and reliable: every frame of a sequence
	// has to reach the screen, in order.
	ordered := true
	framesDC, err := pc.CreateDataChannel(transport.LabelFrames, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		pc.Close()
		return nil, err
	}
	controlDC, err := pc.CreateDataChannel(transport.LabelControl, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		pc.Close()
		return nil, err
	}

	s := &Source{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannelTransport(framesDC, controlDC),
		viewerID:  viewerID,
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		sendCandidate(c, func(data json.RawMessage) error {
			return sig.SendICECandidate(viewerID, data)
		})
	})

	return s, nil
}

// Transport returns the DataChannelTransport for sending frames and
// exchanging control messages.
func (s *Source) Transport() *transport.DataChannelTransport {
	return s.transport
}

// Viewer returns the ID of the viewer this source streams to.
func (s *Source) Viewer() string {
	return s.viewerID
}

// Connect initiates the WebRTC connection by creating and sending an offer.
// The offer is sent once candidate gathering finished, so it carries every
// local candidate even if trickled ones reach the viewer before it has a
// peer to add them to.
func (s *Source) Connect() error {
	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return err
	}
	gathered := webrtc.GatheringCompletePromise(s.pc)
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return err
	}
	select {
	case <-gathered:
	case <-time.After(gatherTimeout):
	}
	offerJSON, err := json.Marshal(s.pc.LocalDescription())
	if err != nil {
		return err
	}
	return s.sig.SendOffer(s.viewerID, offerJSON)
}

// HandleAnswer processes an incoming SDP answer.
func (s *Source) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return err
	}
	if err := s.pc.SetRemoteDescription(answer); err != nil {
		return err
	}
	s.candidates.flush(s.pc)
	return nil
}

// HandleICECandidate adds a remote ICE candidate.
func (s *Source) HandleICECandidate(payload json.RawMessage) error {
	return s.candidates.add(s.pc, payload)
}

// Close shuts down the peer connection.
func (s *Source) Close() {
	if s.pc != nil {
		s.pc.Close()
	}
}
