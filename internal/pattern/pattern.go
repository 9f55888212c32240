// Package pattern renders the test images a projector-camera setup cycles
// through: flat grays, gradients, colored backgrounds with a frame number,
// and QR codes.
package pattern

import (
	"fmt"
	"math/rand/v2"

	"github.com/junsooki/glimshow"
)

// Random asks Background for a random hue, saturation or value.
const Random = -1

// DummyLevel is the gray level of the padding frames in a Sequence.
const DummyLevel = 128

func checkShape(shape [3]int) error {
	if shape[2] != 3 {
		return fmt.Errorf("pattern: the number of channels must be 3, got %d", shape[2])
	}
	if shape[0] <= 0 || shape[1] <= 0 {
		return fmt.Errorf("pattern: invalid shape %v", shape)
	}
	return nil
}

// Gray returns an image filled with level.
func Gray(shape [3]int, level uint8) (*glimshow.Image, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	return glimshow.NewFilled(shape[0], shape[1], level), nil
}

// Gradient returns red increasing along x, green increasing along y and a
// constant blue of 128.
func Gradient(shape [3]int) (*glimshow.Image, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	h, w := shape[0], shape[1]
	img := glimshow.NewImage(h, w)
	for y := 0; y < h; y++ {
		g := ramp(y, h)
		row := img.Pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			row[x*3+0] = ramp(x, w)
			row[x*3+1] = g
			row[x*3+2] = 128
		}
	}
	return img, nil
}

func ramp(i, n int) uint8 {
	if n <= 1 {
		return 0
	}
	return uint8(i * 255 / (n - 1))
}

// Background returns an image filled with one HSV color. hue is in
// [0, 180), sat and val in [0, 256); pass Random for a random component.
func Background(shape [3]int, hue, sat, val int) (*glimshow.Image, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	if hue == Random {
		hue = rand.IntN(180)
	}
	if sat == Random {
		sat = rand.IntN(255)
	}
	if val == Random {
		val = rand.IntN(255)
	}
	img := glimshow.NewImage(shape[0], shape[1])
	img.Fill(HSV(hue, sat, val))
	return img, nil
}

// Sequence returns dummy gray frames, main numbered frames, then dummy gray
// frames again. The dummy frames share one buffer.
func Sequence(shape [3]int, dummy, main int) ([]*glimshow.Image, error) {
	gray, err := Gray(shape, DummyLevel)
	if err != nil {
		return nil, err
	}
	seq := make([]*glimshow.Image, 0, 2*dummy+main)
	for i := 0; i < dummy; i++ {
		seq = append(seq, gray)
	}
	for i := 0; i < main; i++ {
		img, err := Number(shape, i)
		if err != nil {
			return nil, err
		}
		seq = append(seq, img)
	}
	for i := 0; i < dummy; i++ {
		seq = append(seq, gray)
	}
	return seq, nil
}
