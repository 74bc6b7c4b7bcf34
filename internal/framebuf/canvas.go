package framebuf

import (
	"github.com/AnyUserName/photoframe/internal/geom"
	"github.com/AnyUserName/photoframe/internal/palette"
)

// Canvas is a rotated logical view over a Framebuffer. Painting happens in
// logical coordinates; the canvas maps them to physical pixels for the
// frame's mounting rotation.
type Canvas struct {
	fb       *Framebuffer
	rotation int

	// Logical size: the physical size, swapped for 90 and 270.
	Width, Height int
}

// Canvas returns a logical view of fb for the given frame rotation.
func (fb *Framebuffer) Canvas(rotation int) *Canvas {
	rotation = geom.NormalizeRotation(rotation)
	w, h := geom.RotatedSize(fb.Width, fb.Height, rotation)
	return &Canvas{fb: fb, rotation: rotation, Width: w, Height: h}
}

// Rotation is the frame rotation the canvas maps for.
func (c *Canvas) Rotation() int { return c.rotation }

// Set paints a logical pixel.
func (c *Canvas) Set(x, y int, idx palette.Index) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return
	}
	px, py := c.physical(x, y)
	c.fb.SetIndex(px, py, idx)
}

// At reads a logical pixel.
func (c *Canvas) At(x, y int) palette.Index {
	px, py := c.physical(x, y)
	return c.fb.IndexAt(px, py)
}

func (c *Canvas) physical(x, y int) (int, int) {
	w, h := c.fb.Width, c.fb.Height
	switch c.rotation {
	case 90:
		return w - y - 1, x
	case 180:
		return w - x - 1, h - y - 1
	case 270:
		return y, h - x - 1
	}
	return x, y
}
