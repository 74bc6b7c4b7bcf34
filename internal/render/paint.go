package render

import (
	"github.com/AnyUserName/photoframe/internal/bmp"
	"github.com/AnyUserName/photoframe/internal/framebuf"
	"github.com/AnyUserName/photoframe/internal/geom"
	"github.com/AnyUserName/photoframe/internal/palette"
)

// Paint draws img onto cv: rotated from its orientation tag to the canvas
// rotation, aspect-fit into the canvas and centered. True-color sources are
// dithered onto the inks; 1- and 4-bit sources are mapped exactly, so only
// black and white survive from them.
//
// Pixels outside the placement keep their previous value.
func Paint(cv *framebuf.Canvas, img *bmp.Image, imageRotation int, allowUpscale bool) geom.Placement {
	delta := geom.Delta(imageRotation, cv.Rotation())
	viewW, viewH := geom.RotatedSize(img.Width, img.Height, delta)
	pl := geom.Fit(viewW, viewH, cv.Width, cv.Height, allowUpscale)

	var d *palette.Ditherer
	if !img.LowBit() {
		d = palette.NewDitherer(pl.W)
	}

	for oy := 0; oy < pl.H; oy++ {
		vy := geom.SampleIndex(oy, viewH, pl.H)
		for ox := 0; ox < pl.W; ox++ {
			vx := geom.SampleIndex(ox, viewW, pl.W)
			sx, sy := geom.RotateCoords(vx, vy, delta, img.Width, img.Height)
			if !geom.InBounds(sx, sy, img.Width, img.Height) {
				continue
			}
			r, g, b := img.RGB(sx, sy)
			var idx palette.Index
			if d != nil {
				idx = d.Quantize(ox, r, g, b)
			} else {
				idx = palette.Exact(r, g, b)
			}
			cv.Set(pl.X+ox, pl.Y+oy, idx)
		}
		if d != nil {
			d.NextRow()
		}
	}
	return pl
}
