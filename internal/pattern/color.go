package pattern

import "image/color"

// HSV converts an 8-bit HSV triple with hue in [0, 180) to RGB.
func HSV(hue, sat, val int) color.RGBA {
	hue = ((hue % 180) + 180) % 180
	sat = clamp8(sat)
	val = clamp8(val)

	if sat == 0 {
		v := uint8(val)
		return color.RGBA{R: v, G: v, B: v, A: 0xff}
	}

	h := float64(hue) * 2 / 60 // sector in [0, 6)
	s := float64(sat) / 255
	v := float64(val) / 255

	sector := int(h)
	f := h - float64(sector)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch sector {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{R: to8(r), G: to8(g), B: to8(b), A: 0xff}
}

func clamp8(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func to8(f float64) uint8 {
	return uint8(f*255 + 0.5)
}
