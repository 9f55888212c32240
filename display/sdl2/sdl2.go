// Package sdl2 is the SDL2 display backend: a borderless fullscreen window
// with an accelerated, v-synced renderer and a streaming RGB24 texture.
package sdl2

import (
	"fmt"
	"image/color"
	"runtime"
	"sync"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/junsooki/glimshow/display"
)

func init() {
	runtime.LockOSThread()
	display.Register(display.BackendSDL, func() display.Backend { return defaultBackend })
}

var defaultBackend = &Backend{}

// Backend owns SDL's video subsystem.
type Backend struct {
	mu          sync.Mutex
	initialized bool
	generation  int
}

func (b *Backend) Name() string { return display.BackendSDL }

func (b *Backend) Open(cfg display.Config) (display.Surface, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
			return nil, fmt.Errorf("%w: init windowing: %v", display.ErrInit, err)
		}
		b.initialized = true
	}

	mode, err := sdl.GetCurrentDisplayMode(cfg.Monitor)
	if err != nil {
		return nil, fmt.Errorf("%w: display %d mode: %v", display.ErrInit, cfg.Monitor, err)
	}
	bounds, err := sdl.GetDisplayBounds(cfg.Monitor)
	if err != nil {
		return nil, fmt.Errorf("%w: display %d bounds: %v", display.ErrInit, cfg.Monitor, err)
	}

	window, err := sdl.CreateWindow(
		cfg.Title,
		bounds.X,
		bounds.Y,
		mode.W,
		mode.H,
		sdl.WINDOW_SHOWN|sdl.WINDOW_BORDERLESS|sdl.WINDOW_FULLSCREEN,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create window: %v", display.ErrInit, err)
	}

	var flags uint32 = sdl.RENDERER_ACCELERATED
	if cfg.VSync {
		flags |= sdl.RENDERER_PRESENTVSYNC
	}
	renderer, err := sdl.CreateRenderer(window, -1, flags)
	if err != nil {
		window.Destroy()
		return nil, fmt.Errorf("%w: init graphics: %v", display.ErrInit, err)
	}

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_RGB24,
		sdl.TEXTUREACCESS_STREAMING,
		mode.W,
		mode.H,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		return nil, fmt.Errorf("%w: init panel: %v", display.ErrInit, err)
	}

	if cfg.HideCursor {
		sdl.ShowCursor(sdl.DISABLE)
	}

	return &surface{
		backend:    b,
		generation: b.generation,
		window:     window,
		renderer:   renderer,
		texture:    texture,
		width:      int(mode.W),
		height:     int(mode.H),
	}, nil
}

// Terminate quits SDL once per initialization.
func (b *Backend) Terminate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return
	}
	sdl.Quit()
	b.initialized = false
	b.generation++
}

func (b *Backend) alive(generation int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized && b.generation == generation
}

type surface struct {
	backend    *Backend
	generation int
	window     *sdl.Window
	renderer   *sdl.Renderer
	texture    *sdl.Texture
	width      int
	height     int
	quit       bool
	released   bool
}

func (s *surface) usable() bool {
	return !s.released && s.backend.alive(s.generation)
}

func (s *surface) Size() (int, int) { return s.width, s.height }

func (s *surface) Clear(c color.Color) {
	if !s.usable() {
		return
	}
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	s.renderer.SetDrawColor(rgba.R, rgba.G, rgba.B, 0xff)
	s.renderer.Clear()
}

func (s *surface) Upload(pix []byte) {
	if !s.usable() {
		return
	}
	s.texture.Update(nil, unsafe.Pointer(&pix[0]), s.width*3)
}

func (s *surface) Draw() {
	if !s.usable() {
		return
	}
	s.renderer.Copy(s.texture, nil, nil)
}

func (s *surface) Present() {
	if !s.usable() {
		return
	}
	s.renderer.Present()
	s.pollEvents()
}

func (s *surface) pollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			s.quit = true
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
				s.quit = true
			}
		}
	}
}

func (s *surface) ShouldClose() bool {
	return s.quit || !s.usable()
}

func (s *surface) Release() {
	if s.released {
		return
	}
	s.released = true
	if !s.backend.alive(s.generation) {
		return
	}
	s.texture.Destroy()
	s.renderer.Destroy()
	s.window.Destroy()
}
