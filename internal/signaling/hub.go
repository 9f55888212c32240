package signaling

import (
	"encoding/json"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	registerWait = 10 * time.Second
	sendBuffer   = 64
)

type peer struct {
	id   string
	role string
	conn *websocket.Conn
	send chan []byte

	// IDs this peer exchanged offers or answers with.
	partners map[string]struct{}
}

// Hub tracks registered clients and relays messages between them.
type Hub struct {
	mu    sync.RWMutex
	peers map[string]*peer
}

func NewHub() *Hub {
	return &Hub{peers: make(map[string]*peer)}
}

// Viewers lists registered viewers sorted by ID.
func (h *Hub) Viewers() []ViewerInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.viewersLocked()
}

func (h *Hub) viewersLocked() []ViewerInfo {
	list := []ViewerInfo{}
	for _, p := range h.peers {
		if p.role == RoleViewer {
			list = append(list, ViewerInfo{ID: p.id, Online: true})
		}
	}
	slices.SortFunc(list, func(a, b ViewerInfo) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return list
}

// Serve runs a connection until it closes. The first message must be a
// register.
func (h *Hub) Serve(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(registerWait))
	var reg Message
	if err := conn.ReadJSON(&reg); err != nil {
		return
	}
	conn.SetReadDeadline(time.Time{})
	if reg.Type != TypeRegister || reg.ID == "" || (reg.Role != RoleViewer && reg.Role != RoleSource) {
		writeDirect(conn, Message{Type: TypeError, Msg: "first message must register a viewer or source"})
		return
	}

	p := &peer{
		id:       reg.ID,
		role:     reg.Role,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		partners: make(map[string]struct{}),
	}
	if !h.add(p) {
		writeDirect(conn, Message{Type: TypeError, Msg: "id already registered: " + reg.ID})
		return
	}
	log.Printf("signaling: %s %s registered", p.role, p.id)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.writePump()
	}()

	h.deliver(p, Message{Type: TypeRegistered, ID: p.id})
	if p.role == RoleSource {
		h.deliver(p, Message{Type: TypeViewers, List: h.Viewers()})
	} else {
		h.broadcastViewers()
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		h.handle(p, msg)
	}

	h.remove(p)
	close(p.send)
	<-done
	log.Printf("signaling: %s %s left", p.role, p.id)
}

func (h *Hub) add(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[p.id]; ok {
		return false
	}
	h.peers[p.id] = p
	return true
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	delete(h.peers, p.id)
	var notify []*peer
	for id := range p.partners {
		if other, ok := h.peers[id]; ok {
			notify = append(notify, other)
		}
	}
	h.mu.Unlock()

	for _, other := range notify {
		h.deliver(other, Message{Type: TypePeerDisconnected, PeerID: p.id})
	}
	if p.role == RoleViewer {
		h.toSources(Message{Type: TypeViewerDisconnected, PeerID: p.id})
		h.broadcastViewers()
	}
}

func (h *Hub) handle(p *peer, msg Message) {
	switch msg.Type {
	case TypePing:
		h.deliver(p, Message{Type: TypePong})
	case TypeListViewers:
		h.deliver(p, Message{Type: TypeViewers, List: h.Viewers()})
	case TypeOffer, TypeAnswer, TypeICECandidate:
		h.mu.Lock()
		target, ok := h.peers[msg.Target]
		if ok && msg.Type != TypeICECandidate {
			p.partners[target.id] = struct{}{}
			target.partners[p.id] = struct{}{}
		}
		h.mu.Unlock()
		if !ok {
			h.deliver(p, Message{Type: TypeError, Msg: "unknown target: " + msg.Target})
			return
		}
		h.deliver(target, Message{Type: msg.Type, From: p.id, Payload: msg.Payload})
	default:
		h.deliver(p, Message{Type: TypeError, Msg: "unsupported message type: " + msg.Type})
	}
}

func (h *Hub) broadcastViewers() {
	h.toSources(Message{Type: TypeViewersUpdated, List: h.Viewers()})
}

func (h *Hub) toSources(msg Message) {
	h.mu.RLock()
	var sources []*peer
	for _, p := range h.peers {
		if p.role == RoleSource {
			sources = append(sources, p)
		}
	}
	h.mu.RUnlock()
	for _, p := range sources {
		h.deliver(p, msg)
	}
}

// deliver queues msg for p, dropping the connection if it cannot keep up.
func (h *Hub) deliver(p *peer, msg Message) {
	msg.Timestamp = time.Now().UnixMilli()
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if cur, ok := h.peers[p.id]; !ok || cur != p {
		return
	}
	select {
	case p.send <- b:
	default:
		log.Printf("signaling: %s is not reading, closing", p.id)
		p.conn.Close()
	}
}

func (p *peer) writePump() {
	for b := range p.send {
		p.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := p.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			p.conn.Close()
			for range p.send {
			}
			return
		}
	}
}

func writeDirect(conn *websocket.Conn, msg Message) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(msg)
}
