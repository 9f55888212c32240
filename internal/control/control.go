// Package control defines the JSON messages exchanged on the "control"
// data channel between a viewer and a source.
package control

import (
	"encoding/json"
	"fmt"
)

// Type identifies the kind of control message.
type Type string

const (
	// TypeHello is sent by the viewer once the channel opens. It carries
	// the shape every frame must have.
	TypeHello Type = "hello"
	// TypePresented acknowledges that frame Seq reached the screen.
	TypePresented Type = "presented"
	// TypeClosed reports that the viewer window was closed.
	TypeClosed Type = "closed"
	// TypeError carries a viewer-side failure for frame Seq, such as a
	// shape mismatch.
	TypeError Type = "error"
)

// Message is the wire format for control messages.
type Message struct {
	Type    Type   `json:"type"`
	Height  int    `json:"height,omitempty"`
	Width   int    `json:"width,omitempty"`
	Backend string `json:"backend,omitempty"`
	Seq     uint32 `json:"seq,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Hello(shape [3]int, backend string) Message {
	return Message{Type: TypeHello, Height: shape[0], Width: shape[1], Backend: backend}
}

func Presented(seq uint32) Message {
	return Message{Type: TypePresented, Seq: seq}
}

func Closed() Message {
	return Message{Type: TypeClosed}
}

func Error(seq uint32, err error) Message {
	return Message{Type: TypeError, Seq: seq, Error: err.Error()}
}

// Shape returns the {height, width, 3} shape of a hello message.
func (m Message) Shape() [3]int {
	return [3]int{m.Height, m.Width, 3}
}

func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses and validates a control message.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("control: %w", err)
	}
	switch m.Type {
	case TypeHello:
		if m.Height <= 0 || m.Width <= 0 {
			return Message{}, fmt.Errorf("control: hello with invalid shape %dx%d", m.Height, m.Width)
		}
	case TypePresented, TypeClosed, TypeError:
	default:
		return Message{}, fmt.Errorf("control: unknown message type %q", m.Type)
	}
	return m, nil
}
