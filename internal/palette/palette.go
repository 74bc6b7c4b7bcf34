// Package palette maps true-color pixels onto the panel's six inks.
//
// The index values are the ones the panel controller interprets literally.
// Index 4 has no ink and must never be produced.
package palette

import "image/color"

// Index is a panel color index as stored in the framebuffer nibbles.
type Index uint8

const (
	Black  Index = 0
	White  Index = 1
	Yellow Index = 2
	Red    Index = 3
	Blue   Index = 5
	Green  Index = 6
)

// Entry is one ink of the panel.
type Entry struct {
	Index   Index
	R, G, B uint8
}

// Entries is the fixed ink table shared by the exact and nearest classifiers.
var Entries = [...]Entry{
	{Black, 0, 0, 0},
	{White, 255, 255, 255},
	{Yellow, 255, 255, 0},
	{Red, 255, 0, 0},
	{Blue, 0, 0, 255},
	{Green, 0, 255, 0},
}

// Nearest returns the ink closest to (r, g, b) by squared Euclidean distance.
// Ties resolve to the earlier table entry.
func Nearest(r, g, b float32) Entry {
	best := Entries[0]
	bestD := float32(-1)
	for _, e := range Entries {
		dr := r - float32(e.R)
		dg := g - float32(e.G)
		db := b - float32(e.B)
		d := dr*dr + dg*dg + db*db
		if bestD < 0 || d < bestD {
			best, bestD = e, d
		}
	}
	return best
}

// Exact returns the ink whose RGB equals (r, g, b), or White when none does.
// It is meant for sources that were already dithered upstream.
func Exact(r, g, b uint8) Index {
	for _, e := range Entries {
		if e.R == r && e.G == g && e.B == b {
			return e.Index
		}
	}
	return White
}

// Valid reports whether idx names one of the six inks.
func Valid(idx Index) bool {
	for _, e := range Entries {
		if e.Index == idx {
			return true
		}
	}
	return false
}

// Color returns the RGB of an ink. Unknown indices render as white.
func Color(idx Index) color.RGBA {
	for _, e := range Entries {
		if e.Index == idx {
			return color.RGBA{R: e.R, G: e.G, B: e.B, A: 0xFF}
		}
	}
	return color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
}

// Model converts arbitrary colors to the nearest ink.
var Model = color.ModelFunc(func(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	e := Nearest(float32(r>>8), float32(g>>8), float32(b>>8))
	return color.RGBA{R: e.R, G: e.G, B: e.B, A: 0xFF}
})
