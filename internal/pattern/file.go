package pattern

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/junsooki/glimshow"
)

// Load reads a PNG or JPEG file and fits it to shape.
func Load(path string, shape [3]int) (*glimshow.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("pattern: decode %s: %w", path, err)
	}
	return Fit(src, shape)
}

// Fit scales src to fill shape exactly. Images that already match are
// converted without resampling.
func Fit(src image.Image, shape [3]int) (*glimshow.Image, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	if b := src.Bounds(); b.Dx() == shape[1] && b.Dy() == shape[0] {
		return glimshow.FromImage(src), nil
	}
	dst := glimshow.NewImage(shape[0], shape[1])
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst, nil
}
