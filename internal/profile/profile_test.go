package profile

import "testing"

func TestGet(t *testing.T) {
	p, err := Get("")
	if err != nil || p.Name != Default || p.Width != 800 || p.Height != 480 {
		t.Fatalf("default: %+v %v", p, err)
	}
	if _, err := Get("epd99"); err == nil {
		t.Error("expected error for unknown panel")
	}
	for _, n := range Names() {
		if _, err := Get(n); err != nil {
			t.Errorf("%s: %v", n, err)
		}
	}
}

func TestCanvas(t *testing.T) {
	p, _ := Get("epd7in3e")
	tests := []struct{ rot, w, h int }{
		{0, 800, 480},
		{90, 480, 800},
		{180, 800, 480},
		{270, 480, 800},
	}
	for _, tt := range tests {
		if w, h := p.Canvas(tt.rot); w != tt.w || h != tt.h {
			t.Errorf("Canvas(%d) = %dx%d, want %dx%d", tt.rot, w, h, tt.w, tt.h)
		}
	}
}

func TestVariantSize(t *testing.T) {
	p, _ := Get("epd13in3e") // natively taller than wide
	tests := []struct {
		kind string
		w, h int
	}{
		{"landscape", 1600, 1200},
		{"portrait", 1200, 1600},
		{"square", 1200, 1200},
	}
	for _, tt := range tests {
		if w, h := p.VariantSize(tt.kind); w != tt.w || h != tt.h {
			t.Errorf("%s: got %dx%d", tt.kind, w, h)
		}
	}
}
