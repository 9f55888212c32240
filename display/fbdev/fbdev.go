//go:build linux

// Package fbdev is the Linux framebuffer display backend. It writes frames
// straight to /dev/fbN at the framebuffer's native resolution, which makes
// it usable on kiosk machines without X11 or Wayland.
package fbdev

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	fb "github.com/gonutz/framebuffer"
	"golang.org/x/sys/unix"

	"github.com/junsooki/glimshow/display"
)

const (
	// FBIO_WAITFORVSYNC from linux/fb.h: _IOW('F', 0x20, __u32).
	fbioWaitForVSync = 0x40044620

	// KDSETMODE and its modes from linux/kd.h.
	kdSetMode  = 0x4B3A
	kdText     = 0x00
	kdGraphics = 0x01
)

func init() {
	display.Register(display.BackendFBDev, func() display.Backend { return defaultBackend })
}

var defaultBackend = &Backend{}

// Backend tracks whether the console was switched to graphics mode.
type Backend struct {
	mu       sync.Mutex
	graphics bool
}

func (b *Backend) Name() string { return display.BackendFBDev }

func (b *Backend) Open(cfg display.Config) (display.Surface, error) {
	path := fmt.Sprintf("/dev/fb%d", cfg.Monitor)
	dev, err := fb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: create window: open %s: %v", display.ErrInit, path, err)
	}
	bounds := dev.Bounds()
	if bounds.Empty() {
		dev.Close()
		return nil, fmt.Errorf("%w: %s reports an empty mode", display.ErrInit, path)
	}

	s := &surface{
		backend: b,
		dev:     dev,
		vsyncFD: -1,
		bounds:  bounds,
		texture: image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy())),
		canvas:  image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy())),
	}
	if cfg.VSync {
		if fd, err := unix.Open(path, unix.O_RDWR, 0); err == nil {
			s.vsyncFD = fd
		}
	}
	if cfg.HideCursor {
		b.setGraphicsMode()
	}
	return s, nil
}

// Terminate puts the console back into text mode.
func (b *Backend) Terminate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.graphics {
		return
	}
	setConsoleMode(kdText)
	b.graphics = false
}

func (b *Backend) setGraphicsMode() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.graphics {
		return
	}
	b.graphics = setConsoleMode(kdGraphics) == nil
}

// setConsoleMode switches the active VT, which hides the text cursor in
// graphics mode.
func setConsoleMode(mode int) error {
	var lastErr error
	for _, p := range []string{"/dev/tty", "/dev/tty0"} {
		fd, err := unix.Open(p, unix.O_RDONLY, 0)
		if err != nil {
			lastErr = fmt.Errorf("open %s: %w", p, err)
			continue
		}
		err = unix.IoctlSetInt(fd, kdSetMode, mode)
		unix.Close(fd)
		if err != nil {
			lastErr = fmt.Errorf("KDSETMODE on %s: %w", p, err)
			continue
		}
		return nil
	}
	return lastErr
}

type surface struct {
	backend *Backend
	dev     *fb.Device
	vsyncFD int
	bounds  image.Rectangle

	// texture holds the last upload, canvas is the back buffer.
	texture *image.RGBA
	canvas  *image.RGBA

	released bool
}

func (s *surface) Size() (int, int) { return s.bounds.Dx(), s.bounds.Dy() }

func (s *surface) Clear(c color.Color) {
	draw.Draw(s.canvas, s.canvas.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func (s *surface) Upload(pix []byte) {
	display.ExpandRGB(s.texture.Pix, pix)
}

func (s *surface) Draw() {
	copy(s.canvas.Pix, s.texture.Pix)
}

// Present waits for vertical blank when the driver supports it, then
// copies the back buffer to the framebuffer.
func (s *surface) Present() {
	if s.released {
		return
	}
	if s.vsyncFD >= 0 {
		// Drivers without vsync support return ENOTTY; frames still go out.
		_ = unix.IoctlSetPointerInt(s.vsyncFD, fbioWaitForVSync, 0)
	}
	draw.Draw(s.dev, s.bounds, s.canvas, image.Point{}, draw.Src)
}

// ShouldClose only reports Release; the framebuffer has no window to close.
func (s *surface) ShouldClose() bool { return s.released }

func (s *surface) Release() {
	if s.released {
		return
	}
	s.released = true
	if s.vsyncFD >= 0 {
		unix.Close(s.vsyncFD)
		s.vsyncFD = -1
	}
	s.dev.Close()
}
