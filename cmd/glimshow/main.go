package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/junsooki/glimshow"
	_ "github.com/junsooki/glimshow/display/backends"
	"github.com/junsooki/glimshow/internal/config"
	"github.com/junsooki/glimshow/internal/pattern"
)

func main() {
	cfg := config.ParseShowFlags()
	defer glimshow.Shutdown()

	opts := cfg.Options()
	err := glimshow.Run(func() error { return show(cfg, opts) }, opts...)
	if err != nil {
		glimshow.Shutdown()
		log.Fatalf("glimshow: %v", err)
	}
}

func show(cfg *config.ShowConfig, opts []glimshow.Option) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs, err := glimshow.New(opts...)
	if err != nil {
		return err
	}
	defer fs.Close()

	log.Printf("glimshow on %s: %dx%d", fs.Backend(), fs.Width(), fs.Height())

	img, err := load(cfg, fs.Shape())
	if err != nil {
		return err
	}

	start := time.Now()
	frames := 0
	for {
		if err := fs.Imshow(img); err != nil {
			return err
		}
		frames++
		if cfg.Hold > 0 && time.Since(start) >= cfg.Hold {
			break
		}
		if fs.ShouldClose() || ctx.Err() != nil {
			break
		}
	}
	elapsed := time.Since(start)
	log.Printf("presented %d frames in %s (%.1f fps)", frames, elapsed.Round(time.Millisecond), float64(frames)/elapsed.Seconds())
	return nil
}

func load(cfg *config.ShowConfig, shape [3]int) (*glimshow.Image, error) {
	if cfg.File != "" {
		return pattern.Load(cfg.File, shape)
	}
	switch cfg.Pattern {
	case "gray":
		return pattern.Gray(shape, pattern.DummyLevel)
	case "gradient":
		return pattern.Gradient(shape)
	case "background":
		return pattern.Background(shape, pattern.Random, 255, 255)
	case "number":
		return pattern.Number(shape, cfg.Index)
	case "qr":
		host, _ := os.Hostname()
		return pattern.QR(shape, fmt.Sprintf("%s:%d", host, cfg.Index))
	}
	return nil, fmt.Errorf("unknown pattern %q", cfg.Pattern)
}
