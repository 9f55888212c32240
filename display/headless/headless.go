// Package headless provides an offscreen display backend. It keeps the
// texture in memory and counts calls, which makes it the backend used by
// tests and dry runs on machines without a monitor.
package headless

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/junsooki/glimshow/display"
)

// DefaultWidth and DefaultHeight are the resolution reported by the
// registered headless backend.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

var defaultBackend = New(DefaultWidth, DefaultHeight)

func init() {
	display.Register(display.BackendHeadless, func() display.Backend { return defaultBackend })
}

// Backend opens in-memory surfaces of a fixed resolution.
type Backend struct {
	width  int
	height int

	// OpenErr, when set, makes Open fail the way a missing display would.
	OpenErr error

	mu         sync.Mutex
	terminated bool
	terminates int
	last       *Surface
}

// New creates a headless backend reporting a width x height monitor.
func New(width, height int) *Backend {
	return &Backend{width: width, height: height}
}

func (b *Backend) Name() string { return display.BackendHeadless }

func (b *Backend) Open(cfg display.Config) (display.Surface, error) {
	if b.OpenErr != nil {
		return nil, fmt.Errorf("%w: create window: %v", display.ErrInit, b.OpenErr)
	}
	if b.width <= 0 || b.height <= 0 {
		return nil, fmt.Errorf("%w: invalid monitor mode %dx%d", display.ErrInit, b.width, b.height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.terminated = false
	s := &Surface{
		backend: b,
		cfg:     cfg,
		width:   b.width,
		height:  b.height,
		texture: make([]byte, b.width*b.height*3),
	}
	s.stats.TextureAllocs = 1
	b.last = s
	return s, nil
}

// Terminate marks the backend as shut down. Only the first call after an
// Open counts.
func (b *Backend) Terminate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.terminated {
		return
	}
	b.terminated = true
	b.terminates++
}

// Terminated reports whether Terminate ran since the last Open.
func (b *Backend) Terminated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terminated
}

// Terminations returns how many times Terminate actually shut down.
func (b *Backend) Terminations() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terminates
}

// Last returns the most recently opened surface.
func (b *Backend) Last() *Surface {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Stats counts the calls a Surface received.
type Stats struct {
	Clears        int
	Uploads       int
	Draws         int
	Presents      int
	Releases      int
	TextureAllocs int
	// Presented is the number of presents that showed a drawn frame.
	Presented int
}

// Surface is an in-memory fullscreen surface.
type Surface struct {
	backend *Backend
	cfg     display.Config
	width   int
	height  int

	mu       sync.Mutex
	texture  []byte
	front    []byte
	drawn    bool
	clear    color.Color
	released bool
	closeReq bool
	stats    Stats
}

func (s *Surface) Size() (int, int) { return s.width, s.height }

func (s *Surface) Config() display.Config { return s.cfg }

func (s *Surface) Clear(c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear = c
	s.stats.Clears++
}

// Upload copies pix into the existing texture. The texture is never
// reallocated.
func (s *Surface) Upload(pix []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	copy(s.texture, pix)
	s.stats.Uploads++
}

func (s *Surface) Draw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.drawn = true
	s.stats.Draws++
}

func (s *Surface) Present() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Presents++
	if s.released || !s.drawn {
		return
	}
	if s.front == nil {
		s.front = make([]byte, len(s.texture))
	}
	copy(s.front, s.texture)
	s.drawn = false
	s.stats.Presented++
}

// RequestClose simulates the user closing the window.
func (s *Surface) RequestClose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeReq = true
}

func (s *Surface) ShouldClose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeReq
}

func (s *Surface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.texture = nil
	s.stats.Releases++
}

// Released reports whether the texture was freed.
func (s *Surface) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// Stats returns a snapshot of the call counters.
func (s *Surface) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// TextureLen returns the size in bytes of the texture.
func (s *Surface) TextureLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.texture)
}

// Front returns a copy of the last presented frame.
func (s *Surface) Front() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.front...)
}

// ClearColor returns the last color passed to Clear.
func (s *Surface) ClearColor() color.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clear
}
