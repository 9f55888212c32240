package signaling

import "encoding/json"

// Message types for signaling protocol.
const (
	TypeRegister           = "register"
	TypeRegistered         = "registered"
	TypeListViewers        = "list-viewers"
	TypeViewers            = "viewers"
	TypeViewersUpdated     = "viewers-updated"
	TypeOffer              = "offer"
	TypeAnswer             = "answer"
	TypeICECandidate       = "ice-candidate"
	TypePing               = "ping"
	TypePong               = "pong"
	TypeError              = "error"
	TypeViewerDisconnected = "viewer-disconnected"
	TypePeerDisconnected   = "peer-disconnected"
)

// Roles distinguish the fullscreen viewer from the frame source.
const (
	RoleViewer = "viewer"
	RoleSource = "source"
)

// Message is the envelope for all signaling messages.
type Message struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Role      string          `json:"role,omitempty"`
	From      string          `json:"from,omitempty"`
	Target    string          `json:"target,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	List      []ViewerInfo    `json:"list,omitempty"`
	PeerID    string          `json:"peerId,omitempty"`
	Msg       string          `json:"message,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// ViewerInfo describes a viewer in the viewer list.
type ViewerInfo struct {
	ID     string `json:"id"`
	Online bool   `json:"online"`
}
