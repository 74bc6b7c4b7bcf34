// Package encoder writes rendered frames and prepared variants to image
// files.
package encoder

import (
	"image"
)

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the output format name (e.g. "png", "jpeg", "bmp").
	Format() string

	// Encode converts the image to bytes. Quality (1-100) applies to lossy
	// formats only.
	Encode(img image.Image, quality int) ([]byte, error)

	// Extension returns the file extension without dot.
	Extension() string
}
