package pattern

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

var shape = [3]int{90, 160, 3}

func TestHSV(t *testing.T) {
	tests := []struct {
		name          string
		hue, sat, val int
		want          color.RGBA
	}{
		{"red", 0, 255, 255, color.RGBA{255, 0, 0, 255}},
		{"green", 60, 255, 255, color.RGBA{0, 255, 0, 255}},
		{"blue", 120, 255, 255, color.RGBA{0, 0, 255, 255}},
		{"yellow", 30, 255, 255, color.RGBA{255, 255, 0, 255}},
		{"gray", 42, 0, 128, color.RGBA{128, 128, 128, 255}},
		{"black", 90, 255, 0, color.RGBA{0, 0, 0, 255}},
		{"wraps hue", 180, 255, 255, color.RGBA{255, 0, 0, 255}},
		{"clamps", 0, 300, -5, color.RGBA{0, 0, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HSV(tt.hue, tt.sat, tt.val); got != tt.want {
				t.Errorf("HSV(%d, %d, %d) = %v, want %v", tt.hue, tt.sat, tt.val, got, tt.want)
			}
		})
	}
}

func TestChannelsMustBeThree(t *testing.T) {
	bad := [3]int{10, 10, 4}
	if _, err := Gray(bad, 1); err == nil {
		t.Error("Gray accepted 4 channels")
	}
	if _, err := Background(bad, 0, 0, 0); err == nil {
		t.Error("Background accepted 4 channels")
	}
	if _, err := Number(bad, 0); err == nil {
		t.Error("Number accepted 4 channels")
	}
	if _, err := QR(bad, "x"); err == nil {
		t.Error("QR accepted 4 channels")
	}
}

func TestGradient(t *testing.T) {
	img, err := Gradient(shape)
	if err != nil {
		t.Fatal(err)
	}
	if img.Shape() != shape {
		t.Fatalf("Shape() = %v", img.Shape())
	}
	if got := img.RGBAt(0, 0); got != (color.RGBA{0, 0, 128, 255}) {
		t.Errorf("top-left = %v", got)
	}
	if got := img.RGBAt(159, 89); got != (color.RGBA{255, 255, 128, 255}) {
		t.Errorf("bottom-right = %v", got)
	}
	if got := img.RGBAt(159, 0); got != (color.RGBA{255, 0, 128, 255}) {
		t.Errorf("top-right = %v", got)
	}
}

func TestBackground_Random(t *testing.T) {
	img, err := Background(shape, Random, Random, Random)
	if err != nil {
		t.Fatal(err)
	}
	first := img.RGBAt(0, 0)
	if img.RGBAt(100, 50) != first {
		t.Error("background is not uniform")
	}
}

func TestNumber(t *testing.T) {
	for i, hue := range []int{0, 60, 120, 0} {
		img, err := Number(shape, i)
		if err != nil {
			t.Fatalf("Number(%d) error = %v", i, err)
		}
		bg := HSV(hue, NumberSat, NumberVal)
		if got := img.RGBAt(0, 0); got != bg {
			t.Errorf("Number(%d) corner = %v, want %v", i, got, bg)
		}

		white := 0
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				if img.RGBAt(x, y) == (color.RGBA{255, 255, 255, 255}) {
					white++
				}
			}
		}
		if white == 0 {
			t.Errorf("Number(%d) drew no text", i)
		}
	}
}

func TestQR(t *testing.T) {
	img, err := QR(shape, "frame:7")
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("corner = %v, want white", got)
	}
	black := false
	for y := 0; y < img.Height && !black; y++ {
		for x := 0; x < img.Width; x++ {
			if img.RGBAt(x, y) == (color.RGBA{0, 0, 0, 255}) {
				black = true
				break
			}
		}
	}
	if !black {
		t.Error("no QR modules drawn")
	}
}

func TestSequence(t *testing.T) {
	seq, err := Sequence(shape, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(seq) != 7 {
		t.Fatalf("len = %d, want 7", len(seq))
	}
	for _, i := range []int{0, 1, 5, 6} {
		if got := seq[i].RGBAt(10, 10); got != (color.RGBA{DummyLevel, DummyLevel, DummyLevel, 255}) {
			t.Errorf("seq[%d] = %v, want dummy gray", i, got)
		}
	}
	for i := 2; i < 5; i++ {
		if seq[i] == seq[0] {
			t.Errorf("seq[%d] is a dummy frame", i)
		}
		if seq[i].Shape() != shape {
			t.Errorf("seq[%d] shape = %v", i, seq[i].Shape())
		}
	}
}

func TestFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for i := range src.Pix {
		src.Pix[i] = 200
		if i%4 == 3 {
			src.Pix[i] = 0xff
		}
	}

	same, err := Fit(src, [3]int{4, 8, 3})
	if err != nil {
		t.Fatal(err)
	}
	if same.Shape() != [3]int{4, 8, 3} || same.Pix[0] != 200 {
		t.Errorf("Fit() same size = %v, first byte %d", same.Shape(), same.Pix[0])
	}

	scaled, err := Fit(src, [3]int{12, 30, 3})
	if err != nil {
		t.Fatal(err)
	}
	if scaled.Shape() != [3]int{12, 30, 3} {
		t.Fatalf("Shape() = %v", scaled.Shape())
	}
	if p := scaled.RGBAt(15, 6); p.R < 198 || p.R > 202 || p.G < 198 || p.G > 202 {
		t.Errorf("scaled flat image has %v", p)
	}
}

func TestLoad(t *testing.T) {
	src, _ := Gradient([3]int{20, 40, 3})
	path := filepath.Join(t.TempDir(), "g.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src.ToRGBA()); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got, err := Load(path, [3]int{20, 40, 3})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Pix, src.Pix) {
		t.Error("loaded image differs from written one")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.png"), [3]int{20, 40, 3}); err == nil {
		t.Error("Load() of missing file succeeded")
	}
}
