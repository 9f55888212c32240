package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/junsooki/glimshow"
)

// Environment variables consulted when a flag is not given.
const (
	EnvBackend   = "GLIMSHOW_BACKEND"
	EnvSignaling = "GLIMSHOW_SIGNALING"
	EnvToken     = "GLIMSHOW_TOKEN"
)

const defaultSignalingURL = "ws://localhost:8080/ws"

// DisplayConfig holds the flags shared by every binary that opens a
// fullscreen window.
type DisplayConfig struct {
	Backend string
	Title   string
	Monitor int
	NoVSync bool
	Warmup  int
}

func (d *DisplayConfig) register(fs *flag.FlagSet) {
	fs.StringVar(&d.Backend, "backend", os.Getenv(EnvBackend), "Display backend (glfw, ebiten, sdl, fbdev, headless); empty picks the best available")
	fs.StringVar(&d.Title, "title", "glimshow", "Window title")
	fs.IntVar(&d.Monitor, "monitor", 0, "Monitor index (0 = primary)")
	fs.BoolVar(&d.NoVSync, "no-vsync", false, "Disable v-sync")
	fs.IntVar(&d.Warmup, "warmup", 32, "Warm-up frames presented after opening")
}

// ShowConfig holds configuration for the glimshow binary.
type ShowConfig struct {
	DisplayConfig
	Pattern string
	File    string
	Index   int
	Hold    time.Duration
}

// ParseShowFlags parses flags for the glimshow binary.
func ParseShowFlags() *ShowConfig {
	cfg, err := parseShowFlags(os.Args[1:])
	exitOnError(err)
	return cfg
}

func parseShowFlags(args []string) (*ShowConfig, error) {
	cfg := &ShowConfig{}
	fs := flag.NewFlagSet("glimshow", flag.ContinueOnError)
	cfg.register(fs)
	fs.StringVar(&cfg.Pattern, "pattern", "gradient", "Pattern to show: gray, gradient, background, number, qr")
	fs.StringVar(&cfg.File, "file", "", "Image file to show instead of a pattern (PNG or JPEG)")
	fs.IntVar(&cfg.Index, "index", 0, "Number for the number pattern, or QR payload index")
	fs.DurationVar(&cfg.Hold, "hold", 3*time.Second, "How long to show the image; 0 holds until the window closes")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch cfg.Pattern {
	case "gray", "gradient", "background", "number", "qr":
	default:
		return nil, fmt.Errorf("unknown pattern %q", cfg.Pattern)
	}
	return cfg, nil
}

// ViewerConfig holds configuration for the viewer binary.
type ViewerConfig struct {
	DisplayConfig
	SignalingURL string
	Token        string
	ViewerID     string
}

// ParseViewerFlags parses flags for the viewer binary.
func ParseViewerFlags() *ViewerConfig {
	cfg, err := parseViewerFlags(os.Args[1:])
	exitOnError(err)
	return cfg
}

func parseViewerFlags(args []string) (*ViewerConfig, error) {
	cfg := &ViewerConfig{}
	fs := flag.NewFlagSet("viewer", flag.ContinueOnError)
	cfg.register(fs)
	fs.StringVar(&cfg.SignalingURL, "signaling", envOr(EnvSignaling, defaultSignalingURL), "Signaling server WebSocket URL")
	fs.StringVar(&cfg.Token, "token", os.Getenv(EnvToken), "Signaling bearer token")
	fs.StringVar(&cfg.ViewerID, "id", "", "Viewer ID (auto-generated if empty)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.ViewerID == "" {
		cfg.ViewerID = fmt.Sprintf("viewer-%s", randomID())
	}
	return cfg, nil
}

// SourceConfig holds configuration for the source binary.
type SourceConfig struct {
	SignalingURL string
	Token        string
	SourceID     string
	ViewerID     string
	Codec        string
	Quality      int
	Pattern      string
	Frames       int
	Dummy        int
	Loop         bool
	Timeout      time.Duration
	Files        []string
}

// ParseSourceFlags parses flags for the source binary. Positional
// arguments are image files streamed instead of a pattern.
func ParseSourceFlags() *SourceConfig {
	cfg, err := parseSourceFlags(os.Args[1:])
	exitOnError(err)
	return cfg
}

func parseSourceFlags(args []string) (*SourceConfig, error) {
	cfg := &SourceConfig{}
	fs := flag.NewFlagSet("source", flag.ContinueOnError)
	fs.StringVar(&cfg.SignalingURL, "signaling", envOr(EnvSignaling, defaultSignalingURL), "Signaling server WebSocket URL")
	fs.StringVar(&cfg.Token, "token", os.Getenv(EnvToken), "Signaling bearer token")
	fs.StringVar(&cfg.SourceID, "id", "", "Source ID (auto-generated if empty)")
	fs.StringVar(&cfg.ViewerID, "viewer", "", "Viewer ID to stream to (first registered viewer if empty)")
	fs.StringVar(&cfg.Codec, "codec", "png", "Frame codec: raw, png or jpeg")
	fs.IntVar(&cfg.Quality, "quality", 90, "JPEG quality (1-100)")
	fs.StringVar(&cfg.Pattern, "pattern", "sequence", "Pattern stream: sequence, qr or gradient")
	fs.IntVar(&cfg.Frames, "frames", 100, "Main frames in the stream")
	fs.IntVar(&cfg.Dummy, "dummy", 32, "Gray dummy frames before and after the main frames")
	fs.BoolVar(&cfg.Loop, "loop", false, "Repeat the stream until interrupted")
	fs.DurationVar(&cfg.Timeout, "timeout", 5*time.Second, "How long to wait for each presented ack")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Files = fs.Args()
	if cfg.Frames < 0 || cfg.Dummy < 0 {
		return nil, fmt.Errorf("frame counts must not be negative")
	}
	if cfg.SourceID == "" {
		cfg.SourceID = fmt.Sprintf("source-%s", randomID())
	}
	return cfg, nil
}

// SignalConfig holds configuration for the signaling server.
type SignalConfig struct {
	Addr     string
	Secret   string
	IssueFor string
	TokenTTL time.Duration
}

// ParseSignalFlags parses flags for the signal binary.
func ParseSignalFlags() *SignalConfig {
	cfg, err := parseSignalFlags(os.Args[1:])
	exitOnError(err)
	return cfg
}

func parseSignalFlags(args []string) (*SignalConfig, error) {
	cfg := &SignalConfig{}
	fs := flag.NewFlagSet("signal", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", ":8080", "Listen address")
	fs.StringVar(&cfg.Secret, "secret", os.Getenv("GLIMSHOW_SECRET"), "HS256 secret for client tokens; empty disables auth")
	fs.StringVar(&cfg.IssueFor, "issue", "", "Print a token for this client ID and exit")
	fs.DurationVar(&cfg.TokenTTL, "ttl", 24*time.Hour, "Lifetime of issued tokens")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.IssueFor != "" && cfg.Secret == "" {
		return nil, fmt.Errorf("-issue needs -secret")
	}
	return cfg, nil
}

func exitOnError(err error) {
	if err == flag.ErrHelp {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func randomID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Options converts the display flags into glimshow options.
func (d *DisplayConfig) Options() []glimshow.Option {
	opts := []glimshow.Option{
		glimshow.WithTitle(d.Title),
		glimshow.WithMonitor(d.Monitor),
		glimshow.WithVSync(!d.NoVSync),
		glimshow.WithWarmupFrames(d.Warmup),
		glimshow.WithLogger(log.Default()),
	}
	if d.Backend != "" {
		opts = append(opts, glimshow.WithBackendName(d.Backend))
	}
	return opts
}
