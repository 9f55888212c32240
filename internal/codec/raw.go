package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/junsooki/glimshow"
)

const rawHeaderLen = 8

// RawEncoder sends pixels uncompressed after a height/width header.
type RawEncoder struct{}

func (RawEncoder) ID() ID { return Raw }

func (RawEncoder) Encode(img *glimshow.Image) ([]byte, error) {
	if err := glimshow.CheckShape(img, img.Height, img.Width); err != nil {
		return nil, err
	}
	buf := make([]byte, rawHeaderLen+len(img.Pix))
	binary.BigEndian.PutUint32(buf[0:4], uint32(img.Height))
	binary.BigEndian.PutUint32(buf[4:8], uint32(img.Width))
	copy(buf[rawHeaderLen:], img.Pix)
	return buf, nil
}

// RawDecoder reverses RawEncoder.
type RawDecoder struct{}

func (RawDecoder) Decode(data []byte) (*glimshow.Image, error) {
	if len(data) < rawHeaderLen {
		return nil, fmt.Errorf("raw frame too short: %d bytes", len(data))
	}
	h := int(binary.BigEndian.Uint32(data[0:4]))
	w := int(binary.BigEndian.Uint32(data[4:8]))
	// Each side is bounded by the payload, so h*w*3 cannot overflow.
	if n := len(data) - rawHeaderLen; h > n || w > n || (w > 0 && h > n/w) {
		return nil, fmt.Errorf("raw frame %dx%d does not fit in %d bytes", h, w, n)
	}
	if want := h * w * 3; len(data)-rawHeaderLen != want {
		return nil, fmt.Errorf("raw frame %dx%d needs %d bytes, got %d", h, w, want, len(data)-rawHeaderLen)
	}
	img := glimshow.NewImage(h, w)
	copy(img.Pix, data[rawHeaderLen:])
	return img, nil
}
