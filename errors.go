package glimshow

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch matches every *ShapeError.
	ErrShapeMismatch = errors.New("glimshow: image shape mismatch")

	// ErrClosed is returned by frame operations after Close.
	ErrClosed = errors.New("glimshow: fullscreen closed")
)

// ShapeError reports a frame whose shape differs from the display's.
type ShapeError struct {
	Expected [3]int
	Got      [3]int

	// Len is the length of the rejected Pix slice. It is only reported
	// when the declared shape matched but the buffer did not.
	Len int
}

func (e *ShapeError) Error() string {
	if e.Expected == e.Got {
		want := e.Expected[0] * e.Expected[1] * e.Expected[2]
		return fmt.Sprintf("invalid image buffer: expected %d bytes for %s, got %d", want, shapeString(e.Expected), e.Len)
	}
	return fmt.Sprintf("invalid image size: expected %s, got %s", shapeString(e.Expected), shapeString(e.Got))
}

func (e *ShapeError) Is(target error) bool { return target == ErrShapeMismatch }

func shapeString(s [3]int) string {
	return fmt.Sprintf("%dx%dx%d", s[0], s[1], s[2])
}

// CheckShape returns a *ShapeError unless img is a contiguous
// height x width x 3 buffer.
func CheckShape(img *Image, height, width int) error {
	want := [3]int{height, width, 3}
	if img == nil {
		return &ShapeError{Expected: want}
	}
	got := img.Shape()
	if got != want {
		return &ShapeError{Expected: want, Got: got, Len: len(img.Pix)}
	}
	if len(img.Pix) != height*width*3 {
		return &ShapeError{Expected: want, Got: got, Len: len(img.Pix)}
	}
	return nil
}
