// Package ebitengine is the Ebitengine display backend. Ebitengine's game
// loop must own the main goroutine, so hosts wrap their work in
// glimshow.Run; frames are handed to the loop and Present blocks until the
// loop has put them on screen.
package ebitengine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/junsooki/glimshow/display"
	"github.com/junsooki/glimshow/display/internal/mainloop"
)

func init() {
	display.Register(display.BackendEbiten, func() display.Backend { return defaultBackend })
}

var defaultBackend = NewBackend()

var errNotLooping = errors.New("ebitengine: Open called outside glimshow.Run")

// Backend hands surfaces opened on the caller's goroutine to the game loop
// running in RunMain.
type Backend struct {
	opens chan *surface

	mu      sync.Mutex
	looping bool
	used    bool
	active  *surface
}

// NewBackend creates a backend. Ebitengine supports one game loop per
// process, so only the first RunMain of all backends can show a window.
func NewBackend() *Backend {
	return &Backend{opens: make(chan *surface)}
}

func (b *Backend) Name() string { return display.BackendEbiten }

// RunMain runs fn on a new goroutine. When fn opens a surface, the game
// loop runs here until the surface is released or fn returns.
func (b *Backend) RunMain(fn func() error) error {
	b.mu.Lock()
	b.looping = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.looping = false
		b.mu.Unlock()
	}()

	return mainloop.Serve[*surface](fn, b.opens, runGame, (*surface).Release, (*surface).stop)
}

func runGame(s *surface) error {
	applyConfig(s.cfg)
	if err := ebiten.RunGame(s); err != nil {
		return fmt.Errorf("ebitengine: %w", err)
	}
	return nil
}

func applyConfig(cfg display.Config) {
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowDecorated(false)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)
	ebiten.SetFullscreen(true)
	ebiten.SetVsyncEnabled(cfg.VSync)
	// One Update per displayed frame, so an Update after a Draw means the
	// frame was presented.
	ebiten.SetTPS(ebiten.SyncWithFPS)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetWindowClosingHandled(true)
	if cfg.HideCursor {
		ebiten.SetCursorMode(ebiten.CursorModeHidden)
	}
}

func (b *Backend) Open(cfg display.Config) (display.Surface, error) {
	b.mu.Lock()
	if !b.looping {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", display.ErrInit, errNotLooping)
	}
	if b.used {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: create window: ebitengine runs one window per process", display.ErrInit)
	}
	b.used = true
	b.mu.Unlock()

	s := newSurface(cfg)
	b.opens <- s

	select {
	case <-s.ready:
	case <-s.stopped:
		return nil, fmt.Errorf("%w: create window: %v", display.ErrInit, s.stopErr)
	}

	b.mu.Lock()
	b.active = s
	b.mu.Unlock()
	return s, nil
}

// Terminate stops the game loop if a surface is still showing.
func (b *Backend) Terminate() {
	b.mu.Lock()
	s := b.active
	b.active = nil
	b.mu.Unlock()
	if s != nil {
		s.Release()
	}
}
