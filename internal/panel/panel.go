// Package panel sends finished framebuffers to an output: the e-paper panel
// over SPI, or a preview image file.
package panel

import (
	"context"
	"fmt"

	"github.com/AnyUserName/photoframe/internal/framebuf"
)

// Panel is a framebuffer sink with a fixed physical size.
type Panel interface {
	// Size is the physical width and height in pixels.
	Size() (w, h int)
	// Flush shows fb. fb must have the panel's size.
	Flush(ctx context.Context, fb *framebuf.Framebuffer) error
	Close() error
}

func checkSize(p Panel, fb *framebuf.Framebuffer) error {
	w, h := p.Size()
	if fb.Width != w || fb.Height != h {
		return fmt.Errorf("panel: framebuffer is %dx%d, panel is %dx%d", fb.Width, fb.Height, w, h)
	}
	return nil
}
