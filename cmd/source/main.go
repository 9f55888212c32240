package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/junsooki/glimshow"
	"github.com/junsooki/glimshow/internal/codec"
	"github.com/junsooki/glimshow/internal/config"
	"github.com/junsooki/glimshow/internal/control"
	"github.com/junsooki/glimshow/internal/pattern"
	"github.com/junsooki/glimshow/internal/peer"
	"github.com/junsooki/glimshow/internal/signaling"
)

var errViewerClosed = errors.New("viewer window closed")

func main() {
	cfg := config.ParseSourceFlags()

	log.Printf("glimshow source starting")
	log.Printf("  Source ID: %s", cfg.SourceID)
	log.Printf("  Signaling: %s", cfg.SignalingURL)
	log.Printf("  Codec:     %s", cfg.Codec)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("source: %v", err)
	}
}

func run(ctx context.Context, cfg *config.SourceConfig) error {
	id, err := codec.Parse(cfg.Codec)
	if err != nil {
		return err
	}
	enc, err := codec.NewEncoder(id, cfg.Quality)
	if err != nil {
		return err
	}

	viewers := make(chan []signaling.ViewerInfo, 4)
	answers := make(chan json.RawMessage, 1)
	var current atomic.Pointer[peer.Source]

	var sig *signaling.Client
	sig = signaling.NewClient(cfg.SignalingURL, cfg.SourceID, signaling.RoleSource, signaling.Handler{
		OnRegistered: func() {
			log.Println("Registered with signaling server")
		},
		OnViewersUpdated: func(list []signaling.ViewerInfo) {
			select {
			case viewers <- list:
			default:
			}
		},
		OnAnswer: func(from string, payload json.RawMessage) {
			if !queueAnswer(answers, payload) {
				log.Printf("ignoring extra answer from %s", from)
			}
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			if src := current.Load(); src != nil && src.Viewer() == from {
				if err := src.HandleICECandidate(payload); err != nil {
					log.Printf("handle ICE candidate: %v", err)
				}
			}
		},
		OnPeerDisconnected: func(id string) {
			log.Printf("%s disconnected", id)
		},
		OnError: func(msg string) {
			log.Printf("signaling error: %s", msg)
		},
	})
	sig.SetToken(cfg.Token)
	if err := sig.Connect(); err != nil {
		return err
	}
	defer sig.Close()

	target, err := pickViewer(ctx, cfg.ViewerID, viewers)
	if err != nil {
		return err
	}
	log.Printf("streaming to viewer %s", target)

	src, err := peer.NewSource(sig, target)
	if err != nil {
		return err
	}
	defer src.Close()
	current.Store(src)

	msgs := make(chan control.Message, 16)
	src.Transport().OnControl(func(m control.Message) {
		select {
		case msgs <- m:
		case <-ctx.Done():
		}
	})
	if err := src.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	select {
	case payload := <-answers:
		if err := src.HandleAnswer(payload); err != nil {
			return fmt.Errorf("handle answer: %w", err)
		}
	case <-time.After(30 * time.Second):
		return errors.New("viewer did not answer")
	case <-ctx.Done():
		return ctx.Err()
	}

	var shape [3]int
	select {
	case m := <-msgs:
		if m.Type != control.TypeHello {
			return fmt.Errorf("expected hello, got %s", m.Type)
		}
		shape = m.Shape()
		log.Printf("viewer %s is %dx%d on %s", target, shape[1], shape[0], m.Backend)
	case <-time.After(30 * time.Second):
		return errors.New("viewer never said hello")
	case <-ctx.Done():
		return ctx.Err()
	}

	frames, err := newStream(cfg, shape)
	if err != nil {
		return err
	}

	s := &streamer{ctx: ctx, enc: enc, send: src.Transport().SendFrame, msgs: msgs, timeout: cfg.Timeout}
	for {
		if err := s.play(frames); err != nil {
			if errors.Is(err, errViewerClosed) {
				log.Println("viewer closed its window")
				return nil
			}
			return err
		}
		if !cfg.Loop {
			return nil
		}
	}
}

// queueAnswer hands an answer to run without blocking the signaling read
// loop; only the first answer is used.
func queueAnswer(answers chan<- json.RawMessage, payload json.RawMessage) bool {
	select {
	case answers <- payload:
		return true
	default:
		return false
	}
}

func pickViewer(ctx context.Context, want string, viewers <-chan []signaling.ViewerInfo) (string, error) {
	timeout := time.After(30 * time.Second)
	for {
		select {
		case list := <-viewers:
			for _, v := range list {
				if want == "" || v.ID == want {
					return v.ID, nil
				}
			}
		case <-timeout:
			if want == "" {
				return "", errors.New("no viewer registered")
			}
			return "", fmt.Errorf("viewer %s not registered", want)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// stream produces frame i of a fixed-length stream.
type stream struct {
	n     int
	frame func(i int) (*glimshow.Image, error)
}

func newStream(cfg *config.SourceConfig, shape [3]int) (*stream, error) {
	if len(cfg.Files) > 0 {
		return &stream{n: len(cfg.Files), frame: func(i int) (*glimshow.Image, error) {
			return pattern.Load(cfg.Files[i], shape)
		}}, nil
	}

	var main func(i int) (*glimshow.Image, error)
	switch cfg.Pattern {
	case "sequence":
		main = func(i int) (*glimshow.Image, error) { return pattern.Number(shape, i) }
	case "qr":
		main = func(i int) (*glimshow.Image, error) { return pattern.QR(shape, fmt.Sprintf("frame:%d", i)) }
	case "gradient":
		g, err := pattern.Gradient(shape)
		if err != nil {
			return nil, err
		}
		main = func(int) (*glimshow.Image, error) { return g, nil }
	default:
		return nil, fmt.Errorf("unknown pattern %q", cfg.Pattern)
	}

	gray, err := pattern.Gray(shape, pattern.DummyLevel)
	if err != nil {
		return nil, err
	}
	dummy := cfg.Dummy
	return &stream{n: 2*dummy + cfg.Frames, frame: func(i int) (*glimshow.Image, error) {
		if i < dummy || i >= dummy+cfg.Frames {
			return gray, nil
		}
		return main(i - dummy)
	}}, nil
}

type streamer struct {
	ctx     context.Context
	enc     codec.Encoder
	send    func(seq uint32, id codec.ID, data []byte) error
	msgs    <-chan control.Message
	timeout time.Duration
	seq     uint32
}

// play sends every frame of s and waits for the viewer to present each
// one before sending the next.
func (st *streamer) play(s *stream) error {
	start := time.Now()
	for i := 0; i < s.n; i++ {
		t0 := time.Now()
		img, err := s.frame(i)
		if err != nil {
			return err
		}
		data, err := st.enc.Encode(img)
		if err != nil {
			return fmt.Errorf("encode frame %d: %w", i, err)
		}
		st.seq++
		if err := st.send(st.seq, st.enc.ID(), data); err != nil {
			return err
		}
		if err := st.waitPresented(st.seq); err != nil {
			return err
		}
		log.Printf("frame %d/%d: %d bytes, %.1f fps", i+1, s.n, len(data), 1/time.Since(t0).Seconds())
	}
	if s.n > 0 {
		log.Printf("%d frames in %s (%.1f fps)", s.n, time.Since(start).Round(time.Millisecond), float64(s.n)/time.Since(start).Seconds())
	}
	return nil
}

func (st *streamer) waitPresented(seq uint32) error {
	timer := time.NewTimer(st.timeout)
	defer timer.Stop()
	for {
		select {
		case m := <-st.msgs:
			switch m.Type {
			case control.TypePresented:
				if m.Seq == seq {
					return nil
				}
			case control.TypeError:
				if m.Seq == seq {
					return fmt.Errorf("viewer rejected frame %d: %s", seq, m.Error)
				}
			case control.TypeClosed:
				return errViewerClosed
			}
		case <-timer.C:
			return fmt.Errorf("frame %d not presented within %s", seq, st.timeout)
		case <-st.ctx.Done():
			return st.ctx.Err()
		}
	}
}
