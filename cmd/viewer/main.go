package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/junsooki/glimshow"
	_ "github.com/junsooki/glimshow/display/backends"
	"github.com/junsooki/glimshow/internal/codec"
	"github.com/junsooki/glimshow/internal/config"
	"github.com/junsooki/glimshow/internal/control"
	"github.com/junsooki/glimshow/internal/peer"
	"github.com/junsooki/glimshow/internal/signaling"
	"github.com/junsooki/glimshow/internal/transport"
)

func main() {
	cfg := config.ParseViewerFlags()
	defer glimshow.Shutdown()

	log.Printf("glimshow viewer starting")
	log.Printf("  Viewer ID: %s", cfg.ViewerID)
	log.Printf("  Signaling: %s", cfg.SignalingURL)

	opts := cfg.Options()
	if err := glimshow.Run(func() error { return view(cfg, opts) }, opts...); err != nil {
		glimshow.Shutdown()
		log.Fatalf("viewer: %v", err)
	}
}

// session is the connection to the current source.
type session struct {
	mu   sync.Mutex
	peer *peer.Viewer
}

func (s *session) replace(p *peer.Viewer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peer != nil {
		s.peer.Close()
	}
	s.peer = p
}

func (s *session) get() *peer.Viewer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer
}

func (s *session) send(m control.Message) {
	if p := s.get(); p != nil {
		if err := p.Transport().SendControl(m); err != nil {
			log.Printf("send %s: %v", m.Type, err)
		}
	}
}

func view(cfg *config.ViewerConfig, opts []glimshow.Option) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs, err := glimshow.New(opts...)
	if err != nil {
		return err
	}
	defer fs.Close()
	log.Printf("fullscreen on %s: %dx%d", fs.Backend(), fs.Width(), fs.Height())

	frames := make(chan transport.Frame, 4)
	var sess session
	defer sess.replace(nil)

	var sig *signaling.Client
	sig = signaling.NewClient(cfg.SignalingURL, cfg.ViewerID, signaling.RoleViewer, signaling.Handler{
		OnRegistered: func() {
			log.Printf("Registered with signaling server. Viewer ID: %s", cfg.ViewerID)
		},
		OnOffer: func(from string, payload json.RawMessage) {
			log.Printf("Received offer from %s", from)
			p, err := peer.NewViewer(sig)
			if err != nil {
				log.Printf("create viewer peer: %v", err)
				return
			}
			sess.replace(p)

			t := p.Transport()
			t.OnControlOpen(func() {
				if err := t.SendControl(control.Hello(fs.Shape(), fs.Backend())); err != nil {
					log.Printf("send hello: %v", err)
				}
			})
			t.OnFrame(func(f transport.Frame) {
				select {
				case frames <- f:
				case <-ctx.Done():
				}
			})
			if err := p.HandleOffer(from, payload); err != nil {
				log.Printf("handle offer: %v", err)
			}
		},
		OnICECandidate: func(from string, payload json.RawMessage) {
			if p := sess.get(); p != nil && p.Source() == from {
				if err := p.HandleICECandidate(payload); err != nil {
					log.Printf("handle ICE candidate: %v", err)
				}
			}
		},
		OnPeerDisconnected: func(id string) {
			log.Printf("source %s disconnected", id)
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

	decoders := map[codec.ID]codec.Decoder{}
	current := glimshow.NewFilled(fs.Height(), fs.Width(), 128)
	for {
		if fs.ShouldClose() {
			log.Println("window closed")
			sess.send(control.Closed())
			return nil
		}
		select {
		case <-ctx.Done():
			sess.send(control.Closed())
			return nil
		case <-sig.Done():
			return errors.New("signaling connection lost")
		case f := <-frames:
			img, err := decode(decoders, f)
			if err == nil {
				err = fs.Imshow(img)
			}
			if err != nil {
				log.Printf("frame %d: %v", f.Seq, err)
				sess.send(control.Error(f.Seq, err))
				continue
			}
			current = img
			sess.send(control.Presented(f.Seq))
		default:
			// Keep the window serviced while idle.
			if err := fs.Imshow(current); err != nil {
				return err
			}
		}
	}
}

func decode(decoders map[codec.ID]codec.Decoder, f transport.Frame) (*glimshow.Image, error) {
	dec, ok := decoders[f.Codec]
	if !ok {
		var err error
		if dec, err = codec.NewDecoder(f.Codec); err != nil {
			return nil, err
		}
		decoders[f.Codec] = dec
	}
	img, err := dec.Decode(f.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %v: %w", f.Codec, err)
	}
	return img, nil
}
