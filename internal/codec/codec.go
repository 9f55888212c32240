// Package codec turns frames into bytes for the remote feed and back.
package codec

import (
	"fmt"

	"github.com/junsooki/glimshow"
)

// ID identifies a codec on the wire.
type ID uint8

const (
	Raw  ID = 0
	PNG  ID = 1
	JPEG ID = 2
)

func (id ID) String() string {
	switch id {
	case Raw:
		return "raw"
	case PNG:
		return "png"
	case JPEG:
		return "jpeg"
	}
	return fmt.Sprintf("codec(%d)", uint8(id))
}

// Encoder encodes a frame into bytes.
type Encoder interface {
	ID() ID
	Encode(img *glimshow.Image) ([]byte, error)
}

// Decoder decodes bytes into a frame.
type Decoder interface {
	Decode(data []byte) (*glimshow.Image, error)
}

// Parse maps a codec name from the command line to its ID.
func Parse(name string) (ID, error) {
	switch name {
	case "raw":
		return Raw, nil
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	}
	return 0, fmt.Errorf("unknown codec %q (want raw, png or jpeg)", name)
}

// NewEncoder returns the encoder for id. quality only applies to JPEG.
func NewEncoder(id ID, quality int) (Encoder, error) {
	switch id {
	case Raw:
		return RawEncoder{}, nil
	case PNG:
		return NewPNGEncoder(), nil
	case JPEG:
		return NewJPEGEncoder(quality), nil
	}
	return nil, fmt.Errorf("no encoder for %v", id)
}

// NewDecoder returns the decoder for id.
func NewDecoder(id ID) (Decoder, error) {
	switch id {
	case Raw:
		return RawDecoder{}, nil
	case PNG, JPEG:
		return ImageDecoder{}, nil
	}
	return nil, fmt.Errorf("no decoder for %v", id)
}
