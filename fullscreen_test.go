package glimshow_test

import (
	"bytes"
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/junsooki/glimshow"
	"github.com/junsooki/glimshow/display"
	"github.com/junsooki/glimshow/display/headless"
)

func open(t *testing.T, b *headless.Backend, opts ...glimshow.Option) (*glimshow.FullScreen, *headless.Surface) {
	t.Helper()
	fs, err := glimshow.New(append([]glimshow.Option{glimshow.WithBackend(b)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { fs.Close() })
	return fs, b.Last()
}

func TestNew_ReportsMonitorResolution(t *testing.T) {
	fs, _ := open(t, headless.New(1920, 1080))

	if fs.Width() != 1920 || fs.Height() != 1080 {
		t.Errorf("size = %dx%d, want 1920x1080", fs.Width(), fs.Height())
	}
	if got, want := fs.Shape(), [3]int{1080, 1920, 3}; got != want {
		t.Errorf("Shape() = %v, want %v", got, want)
	}
	if fs.Backend() != display.BackendHeadless {
		t.Errorf("Backend() = %q", fs.Backend())
	}
}

func TestNew_ClearsAndWarmsUp(t *testing.T) {
	_, s := open(t, headless.New(64, 48))

	st := s.Stats()
	if st.Clears != 1 {
		t.Errorf("Clears = %d, want 1", st.Clears)
	}
	if st.Uploads != glimshow.DefaultWarmupFrames || st.Draws != glimshow.DefaultWarmupFrames {
		t.Errorf("Uploads/Draws = %d/%d, want %d", st.Uploads, st.Draws, glimshow.DefaultWarmupFrames)
	}
	if st.Presents != glimshow.DefaultWarmupFrames+1 {
		t.Errorf("Presents = %d, want %d", st.Presents, glimshow.DefaultWarmupFrames+1)
	}
	if got, want := s.ClearColor(), (color.RGBA{128, 128, 128, 255}); got != want {
		t.Errorf("clear color = %v, want %v", got, want)
	}
	front := s.Front()
	if len(front) != 64*48*3 || front[0] != 128 || front[len(front)-1] != 128 {
		t.Errorf("warm-up frame not gray")
	}
	if cfg := s.Config(); !cfg.VSync || !cfg.HideCursor {
		t.Errorf("config = %+v, want vsync and hidden cursor", cfg)
	}
}

func TestNew_WarmupFramesOption(t *testing.T) {
	_, s := open(t, headless.New(8, 8), glimshow.WithWarmupFrames(0), glimshow.WithVSync(false))

	st := s.Stats()
	if st.Uploads != 0 || st.Presents != 1 {
		t.Errorf("stats = %+v, want only the clear present", st)
	}
	if s.Config().VSync {
		t.Error("VSync still enabled")
	}
}

func TestNew_OpenFailure(t *testing.T) {
	b := headless.New(8, 8)
	b.OpenErr = errors.New("no display")

	fs, err := glimshow.New(glimshow.WithBackend(b))
	if err == nil {
		fs.Close()
		t.Fatal("New() succeeded without a display")
	}
	if !errors.Is(err, display.ErrInit) {
		t.Errorf("error %v does not wrap display.ErrInit", err)
	}
	if b.Terminations() != 1 {
		t.Errorf("Terminations() = %d, want 1", b.Terminations())
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := glimshow.New(glimshow.WithBackendName("nope"))
	if !errors.Is(err, display.ErrBackendNotAvailable) {
		t.Errorf("error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestNew_RegisteredBackendByName(t *testing.T) {
	fs, err := glimshow.New(glimshow.WithBackendName(display.BackendHeadless), glimshow.WithWarmupFrames(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer fs.Close()
	if fs.Shape() != [3]int{headless.DefaultHeight, headless.DefaultWidth, 3} {
		t.Errorf("Shape() = %v", fs.Shape())
	}
}

func TestImshow_AcceptsMatchingFrame(t *testing.T) {
	fs, s := open(t, headless.New(1920, 1080), glimshow.WithWarmupFrames(0))

	if err := fs.Imshow(glimshow.NewImage(1080, 1920)); err != nil {
		t.Fatalf("Imshow() error = %v", err)
	}
	if st := s.Stats(); st.Presented != 1 {
		t.Errorf("Presented = %d, want 1", st.Presented)
	}
	front := s.Front()
	if bytes.IndexFunc(front, func(r rune) bool { return r != 0 }) >= 0 {
		t.Error("presented frame is not all zero")
	}
}

func TestSetNext_RejectsMismatchedShapes(t *testing.T) {
	fs, s := open(t, headless.New(1920, 1080), glimshow.WithWarmupFrames(0))

	short := glimshow.NewImage(1080, 1920)
	short.Pix = short.Pix[:len(short.Pix)-1]
	gray := glimshow.NewImage(1080, 1920)
	gray.Channels = 1

	tests := []struct {
		name    string
		img     *glimshow.Image
		wantMsg string
	}{
		{"swapped dims", glimshow.NewImage(1920, 1080), "expected 1080x1920x3, got 1920x1080x3"},
		{"wrong height", glimshow.NewImage(1079, 1920), "got 1079x1920x3"},
		{"wrong channels", gray, "got 1080x1920x1"},
		{"short buffer", short, "expected 6220800 bytes"},
		{"nil", nil, "got 0x0x0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Stats()
			for _, call := range []func(*glimshow.Image) error{fs.SetNext, fs.Imshow} {
				err := call(tt.img)
				if !errors.Is(err, glimshow.ErrShapeMismatch) {
					t.Fatalf("error = %v, want ErrShapeMismatch", err)
				}
				var se *glimshow.ShapeError
				if !errors.As(err, &se) || se.Expected != fs.Shape() {
					t.Errorf("error %v does not carry expected shape", err)
				}
				if !strings.Contains(err.Error(), tt.wantMsg) {
					t.Errorf("message %q does not contain %q", err.Error(), tt.wantMsg)
				}
			}
			if after := s.Stats(); after != before {
				t.Errorf("surface was called: before %+v, after %+v", before, after)
			}
		})
	}
}

func TestSetNextSwapBuffers_EquivalentToImshow(t *testing.T) {
	a, sa := open(t, headless.New(32, 16), glimshow.WithWarmupFrames(0))
	b, sb := open(t, headless.New(32, 16), glimshow.WithWarmupFrames(0))

	img := glimshow.NewImage(16, 32)
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}

	if err := a.SetNext(img); err != nil {
		t.Fatalf("SetNext() error = %v", err)
	}
	if got := sa.Stats().Presented; got != 0 {
		t.Errorf("SetNext presented %d frames", got)
	}
	a.SwapBuffers()
	if err := b.Imshow(img); err != nil {
		t.Fatalf("Imshow() error = %v", err)
	}

	if !bytes.Equal(sa.Front(), sb.Front()) {
		t.Error("front buffers differ")
	}
	if !bytes.Equal(sa.Front(), img.Pix) {
		t.Error("front buffer does not hold the frame")
	}
}

func TestImshow_TextureNeverGrows(t *testing.T) {
	const w, h, n = 64, 48, 10000
	fs, s := open(t, headless.New(w, h), glimshow.WithWarmupFrames(0))

	img := glimshow.NewImage(h, w)
	for i := 0; i < n; i++ {
		// gray-to-white gradient shifted every frame
		for x := 0; x < w; x++ {
			v := uint8(128 + (x*127/(w-1)+i)%128)
			for y := 0; y < h; y++ {
				img.SetRGB(x, y, color.RGBA{v, v, v, 255})
			}
		}
		if err := fs.Imshow(img); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}

	st := s.Stats()
	if st.TextureAllocs != 1 {
		t.Errorf("TextureAllocs = %d, want 1", st.TextureAllocs)
	}
	if s.TextureLen() != w*h*3 {
		t.Errorf("TextureLen() = %d, want %d", s.TextureLen(), w*h*3)
	}
	if st.Presented != n {
		t.Errorf("Presented = %d, want %d", st.Presented, n)
	}
	if fs.Shape() != [3]int{h, w, 3} {
		t.Errorf("Shape() changed to %v", fs.Shape())
	}
}

func TestClose_Idempotent(t *testing.T) {
	b := headless.New(8, 8)
	fs, err := glimshow.New(glimshow.WithBackend(b))
	if err != nil {
		t.Fatal(err)
	}
	s := b.Last()

	for i := 0; i < 3; i++ {
		if err := fs.Close(); err != nil {
			t.Fatalf("Close() #%d error = %v", i, err)
		}
	}
	if !s.Released() || s.Stats().Releases != 1 {
		t.Errorf("surface released %d times", s.Stats().Releases)
	}
	if b.Terminations() != 1 {
		t.Errorf("Terminations() = %d, want 1", b.Terminations())
	}
	glimshow.Shutdown()
	if b.Terminations() != 1 {
		t.Errorf("Shutdown after Close terminated again")
	}
}

func TestClose_AfterShutdown(t *testing.T) {
	b := headless.New(8, 8)
	fs, err := glimshow.New(glimshow.WithBackend(b))
	if err != nil {
		t.Fatal(err)
	}

	glimshow.Shutdown()
	glimshow.Shutdown()
	if !b.Terminated() {
		t.Fatal("Shutdown did not terminate the backend")
	}
	if err := fs.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if b.Terminations() != 1 {
		t.Errorf("Terminations() = %d, want 1", b.Terminations())
	}
}

func TestFullScreen_AfterShutdown(t *testing.T) {
	b := headless.New(8, 8)
	fs, s := open(t, b, glimshow.WithWarmupFrames(0))
	before := s.Stats()

	glimshow.Shutdown()
	if !b.Terminated() {
		t.Fatal("Shutdown did not terminate the backend")
	}

	if err := fs.Imshow(glimshow.NewImage(8, 8)); !errors.Is(err, glimshow.ErrClosed) {
		t.Errorf("Imshow() error = %v, want ErrClosed", err)
	}
	if err := fs.SetNext(glimshow.NewImage(8, 8)); !errors.Is(err, glimshow.ErrClosed) {
		t.Errorf("SetNext() error = %v, want ErrClosed", err)
	}
	fs.SwapBuffers()
	if !fs.ShouldClose() {
		t.Error("ShouldClose() = false after Shutdown")
	}
	after := s.Stats()
	if after.Uploads != before.Uploads || after.Draws != before.Draws || after.Presents != before.Presents {
		t.Errorf("surface used after Shutdown: before %+v, after %+v", before, after)
	}
}

func TestFullScreen_AfterClose(t *testing.T) {
	fs, _ := open(t, headless.New(8, 8), glimshow.WithWarmupFrames(0))
	fs.Close()

	if err := fs.SetNext(glimshow.NewImage(8, 8)); !errors.Is(err, glimshow.ErrClosed) {
		t.Errorf("SetNext() error = %v, want ErrClosed", err)
	}
	if err := fs.Imshow(glimshow.NewImage(8, 8)); !errors.Is(err, glimshow.ErrClosed) {
		t.Errorf("Imshow() error = %v, want ErrClosed", err)
	}
	fs.SwapBuffers()
	if !fs.ShouldClose() {
		t.Error("ShouldClose() = false after Close")
	}
	if fs.Shape() != [3]int{8, 8, 3} {
		t.Errorf("Shape() = %v after Close", fs.Shape())
	}
}

func TestShouldClose_FollowsWindow(t *testing.T) {
	fs, s := open(t, headless.New(8, 8), glimshow.WithWarmupFrames(0))

	if fs.ShouldClose() {
		t.Fatal("ShouldClose() = true on a fresh window")
	}
	s.RequestClose()
	if !fs.ShouldClose() {
		t.Error("ShouldClose() = false after close request")
	}
}

func TestRun_CallsInline(t *testing.T) {
	called := false
	err := glimshow.Run(func() error {
		called = true
		return errors.New("done")
	}, glimshow.WithBackend(headless.New(8, 8)))
	if !called || err == nil || err.Error() != "done" {
		t.Errorf("Run() = %v, called = %v", err, called)
	}
}
