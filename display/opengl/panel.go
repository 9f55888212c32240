package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v2.1/gl"
)

// quad covers the viewport as a triangle strip of x, y, u, v. Row 0 of
// the frame is the top of the screen.
var quad = []float32{
	-1, 1, 0, 0,
	-1, -1, 0, 1,
	1, 1, 1, 0,
	1, -1, 1, 1,
}

const quadStride = 4 * 4

// panel is a texture the size of the display plus the quad it is drawn on.
type panel struct {
	width   int32
	height  int32
	texture uint32
	vbo     uint32
}

func newPanel(width, height int) (*panel, error) {
	p := &panel{width: int32(width), height: int32(height)}

	gl.GenTextures(1, &p.texture)
	if p.texture == 0 {
		return nil, fmt.Errorf("glGenTextures failed")
	}
	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	// Rows of RGB bytes are not 4-byte aligned for odd widths.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB8, p.width, p.height, 0, gl.RGB, gl.UNSIGNED_BYTE, nil)
	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &p.texture)
		return nil, fmt.Errorf("allocate %dx%d texture: gl error 0x%x", width, height, code)
	}

	gl.GenBuffers(1, &p.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quad)*4, gl.Ptr(quad), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	if code := gl.GetError(); code != gl.NO_ERROR {
		p.release()
		return nil, fmt.Errorf("allocate quad: gl error 0x%x", code)
	}

	return p, nil
}

// update replaces the texture contents in place.
func (p *panel) update(pix []byte) {
	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, p.width, p.height, gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(pix))
}

func (p *panel) draw() {
	gl.Enable(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, p.texture)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vbo)

	gl.EnableClientState(gl.VERTEX_ARRAY)
	gl.EnableClientState(gl.TEXTURE_COORD_ARRAY)
	gl.VertexPointer(2, gl.FLOAT, quadStride, gl.PtrOffset(0))
	gl.TexCoordPointer(2, gl.FLOAT, quadStride, gl.PtrOffset(2*4))
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.DisableClientState(gl.TEXTURE_COORD_ARRAY)
	gl.DisableClientState(gl.VERTEX_ARRAY)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (p *panel) release() {
	if p.vbo != 0 {
		gl.DeleteBuffers(1, &p.vbo)
		p.vbo = 0
	}
	if p.texture != 0 {
		gl.DeleteTextures(1, &p.texture)
		p.texture = 0
	}
}
