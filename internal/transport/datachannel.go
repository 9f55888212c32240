package transport

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/glimshow/internal/codec"
	"github.com/junsooki/glimshow/internal/control"
)

// Data channel labels.
const (
	LabelFrames  = "frames"
	LabelControl = "control"
)

const (
	maxBufferedAmount = 4 << 20
	lowBufferedAmount = 1 << 20
)

// DataChannelTransport implements frame and control transport over WebRTC
// DataChannels.
type DataChannelTransport struct {
	mu        sync.Mutex
	framesDC  *webrtc.DataChannel
	controlDC *webrtc.DataChannel
	assembler Assembler
	low       chan struct{}

	onFrame       func(f Frame)
	onControl     func(m control.Message)
	onControlOpen func()
}

// NewDataChannelTransport wraps two DataChannels (frames + control).
// Either may be nil and set later with SetFramesChannel or
// SetControlChannel.
func NewDataChannelTransport(framesDC, controlDC *webrtc.DataChannel) *DataChannelTransport {
	t := &DataChannelTransport{low: make(chan struct{}, 1)}
	if framesDC != nil {
		t.SetFramesChannel(framesDC)
	}
	if controlDC != nil {
		t.SetControlChannel(controlDC)
	}
	return t
}

// SendFrame splits data into chunks and sends them in order, waiting
// whenever the channel's send buffer is full.
func (t *DataChannelTransport) SendFrame(seq uint32, id codec.ID, data []byte) error {
	t.mu.Lock()
	dc := t.framesDC
	t.mu.Unlock()
	if dc == nil {
		return fmt.Errorf("frames data channel not set")
	}
	chunks, err := Split(seq, id, data, MaxChunkPayload)
	if err != nil {
		return err
	}
	for _, c := range chunks {
		for dc.BufferedAmount() > maxBufferedAmount {
			select {
			case <-t.low:
			case <-time.After(50 * time.Millisecond):
			}
		}
		if err := dc.Send(c); err != nil {
			return fmt.Errorf("send frame %d: %w", seq, err)
		}
	}
	return nil
}

func (t *DataChannelTransport) SendControl(m control.Message) error {
	t.mu.Lock()
	dc := t.controlDC
	t.mu.Unlock()
	if dc == nil {
		return fmt.Errorf("control data channel not set")
	}
	data, err := control.Encode(m)
	if err != nil {
		return err
	}
	return dc.SendText(string(data))
}

func (t *DataChannelTransport) OnFrame(cb func(f Frame)) {
	t.mu.Lock()
	t.onFrame = cb
	t.mu.Unlock()
}

func (t *DataChannelTransport) OnControl(cb func(m control.Message)) {
	t.mu.Lock()
	t.onControl = cb
	t.mu.Unlock()
}

// OnControlOpen is called when the control channel is ready to send.
func (t *DataChannelTransport) OnControlOpen(cb func()) {
	t.mu.Lock()
	t.onControlOpen = cb
	t.mu.Unlock()
}

// SetFramesChannel sets or replaces the frames DataChannel (used when
// receiving negotiated channels).
func (t *DataChannelTransport) SetFramesChannel(dc *webrtc.DataChannel) {
	t.mu.Lock()
	t.framesDC = dc
	t.assembler = Assembler{}
	t.mu.Unlock()

	dc.SetBufferedAmountLowThreshold(lowBufferedAmount)
	dc.OnBufferedAmountLow(func() {
		select {
		case t.low <- struct{}{}:
		default:
		}
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.mu.Lock()
		f, ok, err := t.assembler.Add(msg.Data)
		cb := t.onFrame
		t.mu.Unlock()
		if err != nil {
			log.Printf("frames: %v", err)
			return
		}
		if ok && cb != nil {
			cb(f)
		}
	})
}

// SetControlChannel sets or replaces the control DataChannel.
func (t *DataChannelTransport) SetControlChannel(dc *webrtc.DataChannel) {
	t.mu.Lock()
	t.controlDC = dc
	t.mu.Unlock()

	dc.OnOpen(func() {
		t.mu.Lock()
		cb := t.onControlOpen
		t.mu.Unlock()
		if cb != nil {
			cb()
		}
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		m, err := control.Decode(msg.Data)
		if err != nil {
			log.Printf("control: %v", err)
			return
		}
		t.mu.Lock()
		cb := t.onControl
		t.mu.Unlock()
		if cb != nil {
			cb(m)
		}
	})
}
