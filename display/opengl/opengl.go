// Package opengl is the GLFW + OpenGL 2.1 display backend. It opens a
// fullscreen window on a monitor at that monitor's current video mode and
// blits frames through a texture drawn on a full-viewport quad.
//
// GLFW must be driven from the main OS thread, so importing this package
// locks the main goroutine to it.
package opengl

import (
	"fmt"
	"image/color"
	"runtime"
	"sync"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/junsooki/glimshow/display"
)

func init() {
	runtime.LockOSThread()
	display.Register(display.BackendGLFW, func() display.Backend { return defaultBackend })
}

var defaultBackend = &Backend{}

// Backend owns the process-wide GLFW state.
type Backend struct {
	mu          sync.Mutex
	initialized bool
	// generation is bumped by Terminate so surfaces know their window and
	// context are already gone.
	generation int
}

func (b *Backend) Name() string { return display.BackendGLFW }

func (b *Backend) Open(cfg display.Config) (display.Surface, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		if err := glfw.Init(); err != nil {
			return nil, fmt.Errorf("%w: init windowing: %v", display.ErrInit, err)
		}
		b.initialized = true
	}

	monitor, err := pickMonitor(cfg.Monitor)
	if err != nil {
		return nil, err
	}
	mode := monitor.GetVideoMode()
	if mode == nil {
		return nil, fmt.Errorf("%w: monitor %q has no video mode", display.ErrInit, monitor.GetName())
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.AutoIconify, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.Decorated, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.RefreshRate, mode.RefreshRate)

	window, err := glfw.CreateWindow(mode.Width, mode.Height, cfg.Title, monitor, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create window: %v", display.ErrInit, err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		window.Destroy()
		return nil, fmt.Errorf("%w: init graphics: %v", display.ErrInit, err)
	}

	if cfg.HideCursor {
		window.SetInputMode(glfw.CursorMode, glfw.CursorHidden)
	}
	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	// The framebuffer can differ from the video mode on HiDPI displays.
	fbw, fbh := window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(fbw), int32(fbh))

	p, err := newPanel(mode.Width, mode.Height)
	if err != nil {
		window.Destroy()
		return nil, fmt.Errorf("%w: init panel: %v", display.ErrInit, err)
	}

	return &surface{
		backend:    b,
		generation: b.generation,
		window:     window,
		panel:      p,
		width:      mode.Width,
		height:     mode.Height,
	}, nil
}

// Terminate calls glfw.Terminate once per successful initialization.
func (b *Backend) Terminate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return
	}
	glfw.Terminate()
	b.initialized = false
	b.generation++
}

func (b *Backend) alive(generation int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized && b.generation == generation
}

func pickMonitor(index int) (*glfw.Monitor, error) {
	if index == 0 {
		if m := glfw.GetPrimaryMonitor(); m != nil {
			return m, nil
		}
		return nil, fmt.Errorf("%w: no primary monitor", display.ErrInit)
	}
	monitors := glfw.GetMonitors()
	if index < 0 || index >= len(monitors) {
		return nil, fmt.Errorf("%w: monitor index %d out of range (have %d monitors)", display.ErrInit, index, len(monitors))
	}
	return monitors[index], nil
}

type surface struct {
	backend    *Backend
	generation int
	window     *glfw.Window
	panel      *panel
	width      int
	height     int
	released   bool
}

func (s *surface) Size() (int, int) { return s.width, s.height }

// usable reports whether GL calls are still valid: the surface is not
// released and glfw has not been terminated since it was opened.
func (s *surface) usable() bool {
	return !s.released && s.backend.alive(s.generation)
}

func (s *surface) Clear(c color.Color) {
	if !s.usable() {
		return
	}
	r, g, b, _ := c.RGBA()
	gl.ClearColor(float32(r)/0xffff, float32(g)/0xffff, float32(b)/0xffff, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (s *surface) Upload(pix []byte) {
	if !s.usable() {
		return
	}
	s.panel.update(pix)
}

func (s *surface) Draw() {
	if !s.usable() {
		return
	}
	s.panel.draw()
}

// Present swaps buffers, which blocks on v-sync with swap interval 1, and
// pumps the event queue so the window stays responsive.
func (s *surface) Present() {
	if !s.usable() {
		return
	}
	s.window.SwapBuffers()
	glfw.PollEvents()
}

func (s *surface) ShouldClose() bool {
	if !s.usable() {
		return true
	}
	return s.window.ShouldClose()
}

// Release frees the panel and window. After glfw.Terminate both are gone
// already, so only the bookkeeping is updated.
func (s *surface) Release() {
	if s.released {
		return
	}
	s.released = true
	if !s.backend.alive(s.generation) {
		return
	}
	s.panel.release()
	s.window.Destroy()
}
