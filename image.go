package glimshow

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/junsooki/glimshow/display"
)

// Image is a row-major RGB frame buffer with the layout [Height][Width][3].
//
// Image implements draw.Image, so the standard image and font packages can
// render into it directly.
type Image struct {
	Pix      []byte
	Height   int
	Width    int
	Channels int
}

var _ draw.Image = (*Image)(nil)

// NewImage allocates a black height x width RGB image.
func NewImage(height, width int) *Image {
	return &Image{
		Pix:      make([]byte, height*width*3),
		Height:   height,
		Width:    width,
		Channels: 3,
	}
}

// NewFilled allocates an image whose every byte is v.
func NewFilled(height, width int, v uint8) *Image {
	img := NewImage(height, width)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// FromImage converts src to RGB, dropping alpha. The result has the
// dimensions of src's bounds.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	img := NewImage(b.Dy(), b.Dx())
	switch s := src.(type) {
	case *Image:
		copy(img.Pix, s.Pix)
	case *image.RGBA:
		for y := 0; y < img.Height; y++ {
			row := s.Pix[y*s.Stride : y*s.Stride+img.Width*4]
			dst := img.Pix[y*img.Width*3 : (y+1)*img.Width*3]
			for x := 0; x < img.Width; x++ {
				dst[x*3+0] = row[x*4+0]
				dst[x*3+1] = row[x*4+1]
				dst[x*3+2] = row[x*4+2]
			}
		}
	default:
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				img.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
			}
		}
	}
	return img
}

// Shape returns (height, width, channels).
func (m *Image) Shape() [3]int {
	return [3]int{m.Height, m.Width, m.Channels}
}

func (m *Image) ColorModel() color.Model { return color.RGBAModel }

func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.Width, m.Height) }

func (m *Image) At(x, y int) color.Color { return m.RGBAt(x, y) }

// RGBAt returns the opaque color at (x, y), or transparent black outside
// the image.
func (m *Image) RGBAt(x, y int) color.RGBA {
	if !(image.Point{X: x, Y: y}.In(m.Bounds())) {
		return color.RGBA{}
	}
	i := (y*m.Width + x) * 3
	return color.RGBA{R: m.Pix[i], G: m.Pix[i+1], B: m.Pix[i+2], A: 0xff}
}

func (m *Image) Set(x, y int, c color.Color) {
	m.SetRGB(x, y, color.RGBAModel.Convert(c).(color.RGBA))
}

// SetRGB stores c at (x, y) ignoring alpha.
func (m *Image) SetRGB(x, y int, c color.RGBA) {
	if !(image.Point{X: x, Y: y}.In(m.Bounds())) {
		return
	}
	i := (y*m.Width + x) * 3
	m.Pix[i] = c.R
	m.Pix[i+1] = c.G
	m.Pix[i+2] = c.B
}

// Fill sets every pixel to c.
func (m *Image) Fill(c color.RGBA) {
	for i := 0; i+2 < len(m.Pix); i += 3 {
		m.Pix[i] = c.R
		m.Pix[i+1] = c.G
		m.Pix[i+2] = c.B
	}
}

// ToRGBA expands the image to RGBA with full alpha.
func (m *Image) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(m.Bounds())
	display.ExpandRGB(dst.Pix, m.Pix)
	return dst
}
