// Package display defines the surfaces glimshow draws frames on and the
// registry of windowing backends that provide them.
package display

import (
	"errors"
	"image/color"
)

var (
	// ErrInit is wrapped by every error a backend returns from Open.
	ErrInit = errors.New("display: initialization failed")

	// ErrBackendNotAvailable is returned when no backend matches a request.
	ErrBackendNotAvailable = errors.New("display: backend not available")
)

// Config controls how a backend opens its fullscreen surface.
type Config struct {
	Title      string
	Monitor    int // 0 = primary
	VSync      bool
	HideCursor bool
}

// DefaultConfig returns the configuration glimshow uses when none is given.
func DefaultConfig() Config {
	return Config{
		Title:      "glimshow",
		VSync:      true,
		HideCursor: true,
	}
}

// Backend opens fullscreen surfaces on top of one windowing library.
type Backend interface {
	// Name returns the registry name ("glfw", "ebiten", ...).
	Name() string

	// Open initializes the windowing subsystem if needed and creates a
	// fullscreen surface at the monitor's native resolution.
	Open(cfg Config) (Surface, error)

	// Terminate shuts the windowing subsystem down. Only the first call
	// has an effect.
	Terminate()
}

// Surface is a fullscreen window with a texture the size of the display.
//
// Upload receives tightly packed RGB bytes of exactly Size() dimensions;
// callers validate the shape. Draw renders the texture into the back
// buffer and Present makes it visible, blocking on v-sync when enabled.
type Surface interface {
	Size() (width, height int)
	Clear(c color.Color)
	Upload(pix []byte)
	Draw()
	Present()

	// ShouldClose reports whether the user asked the window to close.
	ShouldClose() bool

	// Release frees the texture and window. It is safe to call twice and
	// after the backend was terminated.
	Release()
}

// MainLooper is implemented by backends whose event loop must own the
// main goroutine. RunMain runs fn on another goroutine and returns its
// result once both fn and the loop have finished.
type MainLooper interface {
	RunMain(fn func() error) error
}

// Gray returns the opaque gray with the given intensity in [0, 1].
func Gray(v float64) color.Color {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	c := uint8(v*255 + 0.5)
	return color.RGBA{R: c, G: c, B: c, A: 0xff}
}

// ExpandRGB writes tightly packed RGB src into RGBA dst with opaque alpha.
// dst must hold len(src)/3*4 bytes.
func ExpandRGB(dst, src []byte) {
	n := len(src) / 3
	for i := 0; i < n; i++ {
		dst[i*4+0] = src[i*3+0]
		dst[i*4+1] = src[i*3+1]
		dst[i*4+2] = src[i*3+2]
		dst[i*4+3] = 0xff
	}
}
