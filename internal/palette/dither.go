package palette

// Floyd–Steinberg weights.
const (
	weightRight      = 7.0 / 16
	weightBelowLeft  = 3.0 / 16
	weightBelow      = 5.0 / 16
	weightBelowRight = 1.0 / 16
)

// Ditherer performs row-by-row Floyd–Steinberg error diffusion onto the ink
// table. Callers feed pixels left to right with Quantize and call NextRow at
// the end of every row.
type Ditherer struct {
	width int
	cur   [3][]float32
	next  [3][]float32
}

// NewDitherer allocates error rows for images of the given width.
func NewDitherer(width int) *Ditherer {
	d := &Ditherer{width: width}
	for c := 0; c < 3; c++ {
		d.cur[c] = make([]float32, width)
		d.next[c] = make([]float32, width)
	}
	return d
}

// Width is the row width the ditherer was sized for.
func (d *Ditherer) Width() int { return d.width }

// Quantize picks the ink for pixel x of the current row and diffuses the
// residual error to the unprocessed neighbors.
func (d *Ditherer) Quantize(x int, r, g, b uint8) Index {
	in := [3]float32{
		clamp255(float32(r) + d.cur[0][x]),
		clamp255(float32(g) + d.cur[1][x]),
		clamp255(float32(b) + d.cur[2][x]),
	}
	e := Nearest(in[0], in[1], in[2])
	chosen := [3]float32{float32(e.R), float32(e.G), float32(e.B)}

	for c := 0; c < 3; c++ {
		err := in[c] - chosen[c]
		if err == 0 {
			continue
		}
		if x+1 < d.width {
			d.cur[c][x+1] += err * weightRight
			d.next[c][x+1] += err * weightBelowRight
		}
		if x > 0 {
			d.next[c][x-1] += err * weightBelowLeft
		}
		d.next[c][x] += err * weightBelow
	}
	return e.Index
}

// NextRow makes the accumulated "below" errors current and clears the row
// that will receive the next set.
func (d *Ditherer) NextRow() {
	for c := 0; c < 3; c++ {
		d.cur[c], d.next[c] = d.next[c], d.cur[c]
		clear(d.next[c])
	}
}

// Reset discards all accumulated error.
func (d *Ditherer) Reset() {
	for c := 0; c < 3; c++ {
		clear(d.cur[c])
		clear(d.next[c])
	}
}

func clamp255(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return v
}
