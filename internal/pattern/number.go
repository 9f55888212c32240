package pattern

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/junsooki/glimshow"
)

// Number defaults.
const (
	NumberSat = 140
	NumberVal = 160
)

var (
	fontOnce sync.Once
	boldFont *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		boldFont, fontErr = truetype.Parse(gobold.TTF)
	})
	return boldFont, fontErr
}

// Number returns a colored background with i centered in white, zero
// padded to at least three digits. The background hue cycles through red,
// green and blue with i.
func Number(shape [3]int, i int) (*glimshow.Image, error) {
	img, err := Background(shape, (i%3)*60, NumberSat, NumberVal)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("%0*d", max(3, len(strconv.Itoa(i))), i)
	if err := drawCentered(img, text, color.White); err != nil {
		return nil, err
	}
	return img, nil
}

// drawCentered renders text so that its ink box is centered in img. The
// font size scales with the image height: 2160 rows give a 900px em.
func drawCentered(img *glimshow.Image, text string, fg color.Color) error {
	f, err := loadFont()
	if err != nil {
		return fmt.Errorf("pattern: parse font: %w", err)
	}
	size := 900 * float64(img.Height) / 2160

	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	defer face.Close()
	bounds, advance := font.BoundString(face, text)
	textW := advance.Ceil()
	textH := (bounds.Max.Y - bounds.Min.Y).Ceil()

	x := (img.Width - textW) / 2
	y := (img.Height+textH)/2 - bounds.Max.Y.Ceil()

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f)
	c.SetFontSize(size)
	c.SetHinting(font.HintingNone)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.NewUniform(fg))
	if _, err := c.DrawString(text, freetype.Pt(x, y)); err != nil {
		return fmt.Errorf("pattern: draw %q: %w", text, err)
	}
	return nil
}
