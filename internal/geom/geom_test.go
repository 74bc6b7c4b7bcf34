package geom

import "testing"

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name                   string
		srcW, srcH, boxW, boxH int
		upscale                bool
		wantW, wantH           int
	}{
		{"fits, no upscale", 400, 300, 800, 480, false, 400, 300},
		{"fits, upscale", 400, 300, 800, 480, true, 640, 480},
		{"exact", 800, 480, 800, 480, false, 800, 480},
		{"too wide", 1600, 480, 800, 480, false, 800, 240},
		{"too tall", 480, 1600, 800, 480, false, 144, 480},
		{"sliver", 10000, 1, 800, 480, false, 800, 1},
		{"portrait into landscape box", 480, 800, 800, 480, true, 288, 480},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitDimensions(tt.srcW, tt.srcH, tt.boxW, tt.boxH, tt.upscale)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestFitStaysInsideBox(t *testing.T) {
	boxes := [][2]int{{800, 480}, {480, 800}, {600, 400}, {1, 1}, {7, 3}}
	for _, box := range boxes {
		for srcW := 1; srcW <= 2000; srcW += 37 {
			for srcH := 1; srcH <= 2000; srcH += 53 {
				for _, up := range []bool{false, true} {
					p := Fit(srcW, srcH, box[0], box[1], up)
					if p.W < 1 || p.H < 1 || p.W > box[0] || p.H > box[1] {
						t.Fatalf("src %dx%d box %v up=%v: got %+v", srcW, srcH, box, up, p)
					}
					if p.X < 0 || p.Y < 0 || p.X+p.W > box[0] || p.Y+p.H > box[1] {
						t.Fatalf("src %dx%d box %v: placement escapes box: %+v", srcW, srcH, box, p)
					}
					scaled := up || srcW > box[0] || srcH > box[1]
					if scaled && p.W != box[0] && p.H != box[1] {
						t.Fatalf("src %dx%d box %v: neither side fills: %+v", srcW, srcH, box, p)
					}
				}
			}
		}
	}
}

func TestFitCenters(t *testing.T) {
	p := Fit(1600, 480, 800, 480, false)
	if p.X != 0 || p.Y != 120 {
		t.Errorf("got offset (%d,%d), want (0,120)", p.X, p.Y)
	}
	p = Fit(400, 300, 800, 480, false)
	if p.X != 200 || p.Y != 90 {
		t.Errorf("got offset (%d,%d), want (200,90)", p.X, p.Y)
	}
}

func TestSampleIndex(t *testing.T) {
	// Downscale 10 -> 4 samples 0, 2, 5, 7.
	want := []int{0, 2, 5, 7}
	for i, w := range want {
		if got := SampleIndex(i, 10, 4); got != w {
			t.Errorf("SampleIndex(%d, 10, 4) = %d, want %d", i, got, w)
		}
	}
	for out := 0; out < 300; out++ {
		if got := SampleIndex(out, 100, 300); got < 0 || got >= 100 {
			t.Fatalf("upscale index %d out of range: %d", out, got)
		}
	}
}

func TestNormalizeRotation(t *testing.T) {
	tests := map[int]int{0: 0, 90: 90, 180: 180, 270: 270, 360: 0, 450: 90, -90: 270, 45: 0, 1: 0}
	for in, want := range tests {
		if got := NormalizeRotation(in); got != want {
			t.Errorf("NormalizeRotation(%d) = %d, want %d", in, got, want)
		}
	}
	if ValidRotation(360) || ValidRotation(45) || !ValidRotation(270) {
		t.Error("ValidRotation accepts only the four quarter turns")
	}
}

func TestDelta(t *testing.T) {
	if got := Delta(90, 0); got != 270 {
		t.Errorf("Delta(90, 0) = %d", got)
	}
	if got := Delta(0, 180); got != 180 {
		t.Errorf("Delta(0, 180) = %d", got)
	}
	if got := Delta(270, 270); got != 0 {
		t.Errorf("Delta(270, 270) = %d", got)
	}
}

func TestRotateCoordsKnownPoints(t *testing.T) {
	const w, h = 4, 3
	tests := []struct {
		delta, x, y, wantX, wantY int
	}{
		{0, 1, 2, 1, 2},
		{90, 0, 0, 0, 2},
		{90, 2, 3, 3, 0},
		{180, 0, 0, 3, 2},
		{270, 0, 0, 3, 0},
		{270, 2, 3, 0, 2},
		{45, 1, 1, 1, 1},
		{450, 1, 2, 1, 2},
		{-90, 1, 2, 1, 2},
	}
	for _, tt := range tests {
		x, y := RotateCoords(tt.x, tt.y, tt.delta, w, h)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("delta %d (%d,%d): got (%d,%d), want (%d,%d)",
				tt.delta, tt.x, tt.y, x, y, tt.wantX, tt.wantY)
		}
	}
}

type grid struct {
	w, h int
	pix  []int
}

func newGrid(w, h int) grid {
	g := grid{w: w, h: h, pix: make([]int, w*h)}
	for i := range g.pix {
		g.pix[i] = i
	}
	return g
}

// rotate materializes the view of g after delta.
func rotate(g grid, delta int) grid {
	w, h := RotatedSize(g.w, g.h, delta)
	out := grid{w: w, h: h, pix: make([]int, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := RotateCoords(x, y, delta, g.w, g.h)
			if !InBounds(sx, sy, g.w, g.h) {
				panic("rotated view sampled outside source")
			}
			out.pix[y*w+x] = g.pix[sy*g.w+sx]
		}
	}
	return out
}

func equal(a, b grid) bool {
	if a.w != b.w || a.h != b.h {
		return false
	}
	for i := range a.pix {
		if a.pix[i] != b.pix[i] {
			return false
		}
	}
	return true
}

func TestRotationComposition(t *testing.T) {
	src := newGrid(5, 3)

	g := src
	for i := 0; i < 4; i++ {
		g = rotate(g, 90)
	}
	if !equal(g, src) {
		t.Error("four quarter turns are not the identity")
	}

	if !equal(rotate(rotate(src, 90), 90), rotate(src, 180)) {
		t.Error("90+90 != 180")
	}
	if !equal(rotate(rotate(src, 90), 270), src) {
		t.Error("90+270 != identity")
	}
	if !equal(rotate(src, 0), src) {
		t.Error("0 is not the identity")
	}
}

func TestRotatedSizeOutOfSet(t *testing.T) {
	if w, h := RotatedSize(4, 3, 450); w != 4 || h != 3 {
		t.Errorf("450: got %dx%d", w, h)
	}
	if w, h := RotatedSize(4, 3, Delta(0, 450)); w != 3 || h != 4 {
		t.Errorf("Delta(0, 450): got %dx%d", w, h)
	}
}

func TestRotateCoordsOutOfRange(t *testing.T) {
	x, y := RotateCoords(5, 0, 90, 4, 3)
	if InBounds(x, y, 4, 3) {
		t.Errorf("expected out-of-range source, got (%d,%d)", x, y)
	}
}
