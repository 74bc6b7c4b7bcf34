package encoder

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/AnyUserName/photoframe/internal/bmp"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		path   string
		format string
	}{
		{"out.png", "png"},
		{"OUT.PNG", "png"},
		{"frame.bmp", "bmp"},
		{"a/b/preview.jpg", "jpeg"},
		{"preview.jpeg", "jpeg"},
	}
	for _, tt := range tests {
		enc, err := r.ForPath(tt.path)
		if err != nil {
			t.Errorf("%s: %v", tt.path, err)
			continue
		}
		if enc.Format() != tt.format {
			t.Errorf("%s: got %s", tt.path, enc.Format())
		}
	}
	if _, err := r.ForPath("frame.gif"); err == nil {
		t.Error("expected error for gif")
	}
}

func TestBMPRoundtrip(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 5, 3))
	src.SetGray(1, 2, color.Gray{Y: 200})

	data, err := (&BMPEncoder{}).Encode(src, 0)
	if err != nil {
		t.Fatal(err)
	}
	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Width != 5 || img.Height != 3 || img.Model != bmp.ModelRGB {
		t.Fatalf("got %dx%d %s", img.Width, img.Height, img.Model)
	}
	if r, g, b := img.RGB(1, 2); r != 200 || g != 200 || b != 200 {
		t.Errorf("pixel: got %d,%d,%d", r, g, b)
	}
}

func TestPNGAndJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for _, enc := range []Encoder{&PNGEncoder{}, &JPEGEncoder{}} {
		data, err := enc.Encode(src, 0)
		if err != nil || len(data) == 0 {
			t.Errorf("%s: %d bytes, %v", enc.Format(), len(data), err)
		}
	}
}
