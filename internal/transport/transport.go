package transport

import (
	"github.com/junsooki/glimshow/internal/codec"
	"github.com/junsooki/glimshow/internal/control"
)

// FrameSender sends encoded frames.
type FrameSender interface {
	SendFrame(seq uint32, id codec.ID, data []byte) error
}

// FrameReceiver receives reassembled frames.
type FrameReceiver interface {
	OnFrame(callback func(f Frame))
}

// ControlSender sends control messages.
type ControlSender interface {
	SendControl(m control.Message) error
}

// ControlReceiver receives control messages.
type ControlReceiver interface {
	OnControl(callback func(m control.Message))
}
