package pattern

import (
	"fmt"
	"image"
	"image/draw"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/junsooki/glimshow"
)

// QR returns a white image with payload encoded as a QR code centered on
// it, sized to 80% of the shorter side.
func QR(shape [3]int, payload string) (*glimshow.Image, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	q, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("pattern: encode qr: %w", err)
	}

	img := glimshow.NewFilled(shape[0], shape[1], 0xff)
	side := min(shape[0], shape[1]) * 4 / 5
	code := q.Image(side)

	cb := code.Bounds()
	origin := image.Pt((shape[1]-cb.Dx())/2, (shape[0]-cb.Dy())/2)
	draw.Draw(img, image.Rectangle{Min: origin, Max: origin.Add(cb.Size())}, code, cb.Min, draw.Src)
	return img, nil
}

// QRSequence returns n QR frames encoding "frame:<i>", for identifying
// captured frames after the fact.
func QRSequence(shape [3]int, n int) ([]*glimshow.Image, error) {
	seq := make([]*glimshow.Image, 0, n)
	for i := 0; i < n; i++ {
		img, err := QR(shape, fmt.Sprintf("frame:%d", i))
		if err != nil {
			return nil, err
		}
		seq = append(seq, img)
	}
	return seq, nil
}
