package glimshow

import (
	"io"
	"log"
	"os"

	"github.com/junsooki/glimshow/display"
)

// DefaultWarmupFrames is the number of gray frames shown after the window
// opens so the display settles before real content arrives.
const DefaultWarmupFrames = 32

// BackendEnv names the environment variable consulted when no backend is
// chosen explicitly.
const BackendEnv = "GLIMSHOW_BACKEND"

type options struct {
	backend     display.Backend
	backendName string
	cfg         display.Config
	warmup      int
	logger      *log.Logger
}

// Option configures New and Run.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		cfg:    display.DefaultConfig(),
		warmup: DefaultWarmupFrames,
		logger: log.New(io.Discard, "", 0),
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithBackend uses b instead of a registered backend.
func WithBackend(b display.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithBackendName selects a registered backend by name.
func WithBackendName(name string) Option {
	return func(o *options) { o.backendName = name }
}

// WithTitle sets the window title.
func WithTitle(title string) Option {
	return func(o *options) { o.cfg.Title = title }
}

// WithMonitor opens the window on the given monitor index; 0 is primary.
func WithMonitor(index int) Option {
	return func(o *options) { o.cfg.Monitor = index }
}

// WithVSync toggles waiting for the display refresh in SwapBuffers.
func WithVSync(on bool) Option {
	return func(o *options) { o.cfg.VSync = on }
}

// WithCursor keeps the mouse cursor visible.
func WithCursor() Option {
	return func(o *options) { o.cfg.HideCursor = false }
}

// WithWarmupFrames overrides DefaultWarmupFrames. Negative values count as 0.
func WithWarmupFrames(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.warmup = n
	}
}

// WithLogger routes lifecycle messages to l.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func (o *options) resolveBackend() (display.Backend, error) {
	if o.backend != nil {
		return o.backend, nil
	}
	name := o.backendName
	if name == "" {
		name = os.Getenv(BackendEnv)
	}
	if name != "" {
		return display.Get(name)
	}
	return display.Default()
}
