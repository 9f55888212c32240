package codec

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/junsooki/glimshow"
)

// PNGEncoder encodes frames losslessly, which structured-light patterns
// need. Fastest compression keeps it near frame rate.
type PNGEncoder struct {
	enc png.Encoder
}

func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{enc: png.Encoder{CompressionLevel: png.BestSpeed}}
}

func (e *PNGEncoder) ID() ID { return PNG }

func (e *PNGEncoder) Encode(img *glimshow.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.enc.Encode(&buf, img.ToRGBA()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImageDecoder decodes any registered image format (PNG, JPEG) to RGB.
type ImageDecoder struct{}

func (ImageDecoder) Decode(data []byte) (*glimshow.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return glimshow.FromImage(img), nil
}
