package peer

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/glimshow"
	"github.com/junsooki/glimshow/internal/codec"
	"github.com/junsooki/glimshow/internal/control"
	"github.com/junsooki/glimshow/internal/signaling"
	"github.com/junsooki/glimshow/internal/transport"
)

func TestMain(m *testing.M) {
	// Keep tests off the network.
	ICEServers = nil
	m.Run()
}

func connect(t *testing.T, url, id, role string, h signaling.Handler) *signaling.Client {
	t.Helper()
	registered := make(chan struct{}, 1)
	inner := h.OnRegistered
	h.OnRegistered = func() {
		if inner != nil {
			inner()
		}
		registered <- struct{}{}
	}
	c := signaling.NewClient(url, id, role, h)
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-registered:
	case <-time.After(5 * time.Second):
		t.Fatalf("%s did not register", id)
	}
	return c
}

func TestSourceOfferCarriesDataChannels(t *testing.T) {
	srv := httptest.NewServer(signaling.NewServer("").Router())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	offers := make(chan json.RawMessage, 1)
	viewerSig := connect(t, url, "wall", signaling.RoleViewer, signaling.Handler{
		OnOffer: func(from string, p json.RawMessage) { offers <- p },
	})
	defer viewerSig.Close()

	sourceSig := connect(t, url, "cam", signaling.RoleSource, signaling.Handler{})
	defer sourceSig.Close()

	src, err := NewSource(sourceSig, "wall")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	if err := src.Connect(); err != nil {
		t.Fatal(err)
	}

	var payload json.RawMessage
	select {
	case payload = <-offers:
	case <-time.After(5 * time.Second):
		t.Fatal("viewer never received the offer")
	}
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		t.Fatal(err)
	}
	if offer.Type != webrtc.SDPTypeOffer || !strings.Contains(offer.SDP, "m=application") {
		t.Errorf("offer has no data section:\n%s", offer.SDP)
	}

	v, err := NewViewer(viewerSig)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()
	if err := v.HandleOffer("cam", payload); err != nil {
		t.Fatalf("HandleOffer() error = %v", err)
	}
	if v.Source() != "cam" {
		t.Errorf("Source() = %q", v.Source())
	}
}

func TestRemoteCandidates_QueuedUntilFlush(t *testing.T) {
	pc, err := NewPeerConnection()
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	var r remoteCandidates
	cand := json.RawMessage(`{"candidate":"candidate:1 1 udp 2130706431 127.0.0.1 5000 typ host"}`)
	if err := r.add(pc, cand); err != nil {
		t.Fatalf("add() before remote description: %v", err)
	}
	if len(r.pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(r.pending))
	}
	if err := r.add(pc, json.RawMessage(`{`)); err == nil {
		t.Error("add() accepted malformed JSON")
	}
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(20 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func TestViewerSource_StreamsFullFrame(t *testing.T) {
	srv := httptest.NewServer(signaling.NewServer("").Router())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	var viewer atomic.Pointer[Viewer]
	var source atomic.Pointer[Source]

	offers := make(chan json.RawMessage, 1)
	viewerSig := connect(t, url, "wall", signaling.RoleViewer, signaling.Handler{
		OnOffer: func(from string, p json.RawMessage) { offers <- p },
		OnICECandidate: func(from string, p json.RawMessage) {
			if v := viewer.Load(); v != nil {
				v.HandleICECandidate(p)
			}
		},
	})
	defer viewerSig.Close()

	answers := make(chan json.RawMessage, 1)
	sourceSig := connect(t, url, "cam", signaling.RoleSource, signaling.Handler{
		OnAnswer: func(from string, p json.RawMessage) { answers <- p },
		OnICECandidate: func(from string, p json.RawMessage) {
			if s := source.Load(); s != nil {
				s.HandleICECandidate(p)
			}
		},
	})
	defer sourceSig.Close()

	src, err := NewSource(sourceSig, "wall")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	source.Store(src)
	fromViewer := make(chan control.Message, 4)
	src.Transport().OnControl(func(m control.Message) { fromViewer <- m })

	if err := src.Connect(); err != nil {
		t.Fatal(err)
	}

	v, err := NewViewer(viewerSig)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()
	viewer.Store(v)

	shape := [3]int{1080, 1920, 3}
	frames := make(chan transport.Frame, 1)
	vt := v.Transport()
	vt.OnControlOpen(func() {
		if err := vt.SendControl(control.Hello(shape, "headless")); err != nil {
			t.Errorf("send hello: %v", err)
		}
	})
	vt.OnFrame(func(f transport.Frame) { frames <- f })
	if err := v.HandleOffer("cam", waitFor(t, offers, "offer")); err != nil {
		t.Fatalf("HandleOffer() error = %v", err)
	}
	if err := src.HandleAnswer(waitFor(t, answers, "answer")); err != nil {
		t.Fatalf("HandleAnswer() error = %v", err)
	}

	hello := waitFor(t, fromViewer, "hello")
	if hello.Type != control.TypeHello || hello.Shape() != shape || hello.Backend != "headless" {
		t.Fatalf("hello = %+v", hello)
	}

	img := glimshow.NewImage(shape[0], shape[1])
	for i := range img.Pix {
		img.Pix[i] = byte(i % 251)
	}
	data, err := codec.RawEncoder{}.Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	if err := src.Transport().SendFrame(1, codec.Raw, data); err != nil {
		t.Fatalf("SendFrame() error = %v", err)
	}

	f := waitFor(t, frames, "frame")
	if f.Seq != 1 || f.Codec != codec.Raw || !bytes.Equal(f.Data, data) {
		t.Fatalf("frame seq=%d codec=%v len=%d, want seq=1 raw len=%d", f.Seq, f.Codec, len(f.Data), len(data))
	}
	got, err := codec.RawDecoder{}.Decode(f.Data)
	if err != nil || got.Shape() != shape {
		t.Fatalf("Decode() = %v, %v", got, err)
	}

	if err := vt.SendControl(control.Presented(f.Seq)); err != nil {
		t.Fatal(err)
	}
	if ack := waitFor(t, fromViewer, "presented"); ack.Type != control.TypePresented || ack.Seq != 1 {
		t.Errorf("ack = %+v", ack)
	}
}
