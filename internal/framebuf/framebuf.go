// Package framebuf provides the panel framebuffer: 4-bit ink indices packed
// two per byte in horizontal nibble order.
//
// Memory layout: each byte holds two horizontally adjacent pixels. The high
// nibble is the even x (left) pixel, the low nibble the odd x (right) pixel.
// Rows are ceil(width/2) bytes.
package framebuf

import (
	"image"
	"image/color"

	"github.com/AnyUserName/photoframe/internal/palette"
)

// Framebuffer is the physical-orientation pixel store sent to the panel.
type Framebuffer struct {
	Pix    []byte
	Stride int
	Width  int
	Height int
}

// New allocates a framebuffer for a width x height panel, cleared to white.
func New(width, height int) *Framebuffer {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	stride := (width + 1) / 2
	fb := &Framebuffer{
		Pix:    make([]byte, stride*height),
		Stride: stride,
		Width:  width,
		Height: height,
	}
	fb.Clear(palette.White)
	return fb
}

// Size returns the packed buffer length for a width x height panel.
func Size(width, height int) int {
	return ((width + 1) / 2) * height
}

// Clear fills every pixel with idx.
func (fb *Framebuffer) Clear(idx palette.Index) {
	v := byte(idx&0x0F)<<4 | byte(idx&0x0F)
	for i := range fb.Pix {
		fb.Pix[i] = v
	}
}

// SetIndex writes one pixel. Out-of-range coordinates are ignored.
func (fb *Framebuffer) SetIndex(x, y int, idx palette.Index) {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return
	}
	off, shift := fb.pixOffset(x, y)
	fb.Pix[off] = (fb.Pix[off] &^ (0x0F << shift)) | (byte(idx&0x0F) << shift)
}

// IndexAt reads one pixel. Out-of-range coordinates read as white.
func (fb *Framebuffer) IndexAt(x, y int) palette.Index {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return palette.White
	}
	off, shift := fb.pixOffset(x, y)
	return palette.Index((fb.Pix[off] >> shift) & 0x0F)
}

func (fb *Framebuffer) pixOffset(x, y int) (int, uint) {
	return y*fb.Stride + x/2, uint(4 * (1 - (x & 1)))
}

// ColorModel implements image.Image.
func (fb *Framebuffer) ColorModel() color.Model { return palette.Model }

// Bounds implements image.Image.
func (fb *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.Width, fb.Height)
}

// At implements image.Image, returning the ink color at (x, y).
func (fb *Framebuffer) At(x, y int) color.Color {
	return palette.Color(fb.IndexAt(x, y))
}
