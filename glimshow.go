// Package glimshow shows caller-rendered RGB frames on an exclusive
// fullscreen window, paced by the display's v-sync.
//
// A FullScreen is driven from a single goroutine. Backends that need the
// OS main thread (ebiten) require the host to wrap its work in Run:
//
//	func main() {
//		defer glimshow.Shutdown()
//		err := glimshow.Run(func() error {
//			fs, err := glimshow.New()
//			if err != nil {
//				return err
//			}
//			defer fs.Close()
//			return fs.Imshow(glimshow.NewFilled(fs.Height(), fs.Width(), 255))
//		})
//		...
//	}
package glimshow

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/junsooki/glimshow/display"
)

// FullScreen owns a fullscreen surface and the texture frames are uploaded
// into. Its width and height are fixed at construction.
type FullScreen struct {
	backend display.Backend
	surface display.Surface
	width   int
	height  int
	logger  *log.Logger

	closeOnce sync.Once
	// closed is set by Close, or by Shutdown once the backend is gone.
	closed atomic.Bool
}

// New opens a fullscreen window at the native resolution of the primary
// monitor, clears it to mid gray and shows a short run of gray warm-up
// frames before returning.
func New(opts ...Option) (*FullScreen, error) {
	o := buildOptions(opts)

	b, err := o.resolveBackend()
	if err != nil {
		return nil, fmt.Errorf("glimshow: %w", err)
	}
	track(b)

	s, err := b.Open(o.cfg)
	if err != nil {
		b.Terminate()
		return nil, fmt.Errorf("glimshow: open %s: %w", b.Name(), err)
	}

	w, h := s.Size()
	fs := &FullScreen{
		backend: b,
		surface: s,
		width:   w,
		height:  h,
		logger:  o.logger,
	}
	fs.logger.Printf("glimshow: %s surface open at %dx%d", b.Name(), w, h)
	trackScreen(fs)

	fs.warmup(o.warmup)
	return fs, nil
}

func (fs *FullScreen) warmup(frames int) {
	fs.surface.Clear(display.Gray(0.5))
	fs.surface.Present()

	if frames == 0 {
		return
	}
	gray := NewFilled(fs.height, fs.width, 128)
	for i := 0; i < frames; i++ {
		fs.surface.Upload(gray.Pix)
		fs.surface.Draw()
		fs.surface.Present()
	}
}

// Width returns the display width in pixels.
func (fs *FullScreen) Width() int { return fs.width }

// Height returns the display height in pixels.
func (fs *FullScreen) Height() int { return fs.height }

// Shape returns the shape accepted frames must have: (height, width, 3).
func (fs *FullScreen) Shape() [3]int { return [3]int{fs.height, fs.width, 3} }

// Backend returns the name of the backend the window was opened with.
func (fs *FullScreen) Backend() string { return fs.backend.Name() }

// SetNext uploads img and draws it into the back buffer. The frame becomes
// visible on the next SwapBuffers. A frame whose shape differs from Shape
// is rejected with a *ShapeError before anything is sent to the GPU.
func (fs *FullScreen) SetNext(img *Image) error {
	if fs.closed.Load() {
		return ErrClosed
	}
	if err := CheckShape(img, fs.height, fs.width); err != nil {
		return err
	}
	fs.surface.Upload(img.Pix)
	fs.surface.Draw()
	return nil
}

// SwapBuffers shows the most recently drawn frame and pumps window events.
// With v-sync on it blocks until the display refresh.
func (fs *FullScreen) SwapBuffers() {
	if fs.closed.Load() {
		return
	}
	fs.surface.Present()
}

// Imshow is SetNext followed by SwapBuffers.
func (fs *FullScreen) Imshow(img *Image) error {
	if err := fs.SetNext(img); err != nil {
		return err
	}
	fs.SwapBuffers()
	return nil
}

// ShouldClose reports whether the window was closed by the user (window
// manager close or Escape) or by Close.
func (fs *FullScreen) ShouldClose() bool {
	if fs.closed.Load() {
		return true
	}
	return fs.surface.ShouldClose()
}

// Close releases the texture and window, then shuts the windowing
// subsystem down. Calling it more than once, or after Shutdown, is safe.
func (fs *FullScreen) Close() error {
	fs.closeOnce.Do(func() {
		fs.closed.Store(true)
		untrackScreen(fs)
		fs.surface.Release()
		fs.backend.Terminate()
		fs.logger.Printf("glimshow: %s surface closed", fs.backend.Name())
	})
	return nil
}
