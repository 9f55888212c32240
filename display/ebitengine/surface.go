package ebitengine

import (
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/junsooki/glimshow/display"
	"github.com/junsooki/glimshow/display/internal/framesync"
)

// surface is both the display.Surface used by the caller and the
// ebiten.Game driven by the loop. Fields below mu are shared between the
// two goroutines.
type surface struct {
	cfg     display.Config
	ready   chan struct{}
	stopped chan struct{}
	stopErr error

	width   int
	height  int
	texture *ebiten.Image // loop goroutine only
	staged  []byte        // caller goroutine only

	frames *framesync.Sync

	mu sync.Mutex

	pending      []byte
	hasPending   bool
	pendingClear *color.RGBA

	showTexture bool
	clearColor  color.RGBA

	closeRequested bool
	releasing      bool
}

func newSurface(cfg display.Config) *surface {
	s := &surface{
		cfg:     cfg,
		ready:   make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  framesync.New(),
	}
	return s
}

// stop is called by RunMain once RunGame returned.
func (s *surface) stop(err error) {
	s.stopErr = err
	s.frames.Stop()
	close(s.stopped)
}

func (s *surface) Size() (int, int) { return s.width, s.height }

func (s *surface) Clear(c color.Color) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingClear = &rgba
	s.hasPending = false
}

// Upload converts pix to RGBA on the caller's goroutine; the loop copies it
// into the texture when the frame is presented.
func (s *surface) Upload(pix []byte) {
	display.ExpandRGB(s.staged, pix)
}

func (s *surface) Draw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.releasing {
		return
	}
	s.staged, s.pending = s.pending, s.staged
	s.hasPending = true
	s.pendingClear = nil
}

// Present waits until the loop has drawn the current frame and started the
// next tick, which with v-sync happens on the display refresh.
func (s *surface) Present() {
	s.mu.Lock()
	releasing := s.releasing
	s.mu.Unlock()
	if releasing {
		return
	}
	s.frames.Present()
}

func (s *surface) ShouldClose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeRequested || s.frames.Stopped()
}

// Release ends the game loop and waits for RunGame to return.
func (s *surface) Release() {
	s.mu.Lock()
	if s.releasing {
		s.mu.Unlock()
		return
	}
	s.releasing = true
	s.mu.Unlock()
	<-s.stopped
}

// --- ebiten.Game interface ---

func (s *surface) Update() error {
	if s.texture == nil {
		s.init()
	}

	s.frames.Tick()

	s.mu.Lock()
	defer s.mu.Unlock()
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || ebiten.IsWindowBeingClosed() {
		s.closeRequested = true
	}
	if s.releasing {
		s.texture.Deallocate()
		return ebiten.Termination
	}
	return nil
}

func (s *surface) init() {
	monitors := ebiten.AppendMonitors(nil)
	if s.cfg.Monitor > 0 && s.cfg.Monitor < len(monitors) {
		ebiten.SetMonitor(monitors[s.cfg.Monitor])
	}
	m := ebiten.Monitor()
	w, h := m.Size()
	scale := m.DeviceScaleFactor()
	s.width = int(float64(w) * scale)
	s.height = int(float64(h) * scale)

	s.texture = ebiten.NewImage(s.width, s.height)
	s.staged = make([]byte, s.width*s.height*4)
	s.pending = make([]byte, s.width*s.height*4)
	close(s.ready)
}

func (s *surface) Draw(screen *ebiten.Image) {
	taken := s.frames.TakeFrame()
	s.mu.Lock()
	if taken {
		switch {
		case s.pendingClear != nil:
			s.clearColor = *s.pendingClear
			s.pendingClear = nil
			s.showTexture = false
		case s.hasPending:
			s.texture.WritePixels(s.pending)
			s.hasPending = false
			s.showTexture = true
		}
	}
	show := s.showTexture
	bg := s.clearColor
	s.mu.Unlock()

	if !show {
		screen.Fill(bg)
		return
	}
	screen.DrawImage(s.texture, nil)
}

// Layout keeps the logical screen at the monitor's native pixel size so
// frames are shown 1:1.
func (s *surface) Layout(outsideWidth, outsideHeight int) (int, int) {
	if s.width == 0 || s.height == 0 {
		return outsideWidth, outsideHeight
	}
	return s.width, s.height
}
