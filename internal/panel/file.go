package panel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/AnyUserName/photoframe/internal/encoder"
	"github.com/AnyUserName/photoframe/internal/framebuf"
)

// File renders each flushed frame into a preview image. The format follows
// the file extension.
type File struct {
	path string
	w, h int
	enc  encoder.Encoder

	// Flushes counts successful writes.
	Flushes int
}

// NewFile returns a preview panel of the given physical size writing to path.
func NewFile(path string, w, h int, reg *encoder.Registry) (*File, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("panel: bad size %dx%d", w, h)
	}
	enc, err := reg.ForPath(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, w: w, h: h, enc: enc}, nil
}

func (f *File) Size() (int, int) { return f.w, f.h }

// Path is the preview file.
func (f *File) Path() string { return f.path }

// Flush encodes fb in its physical orientation and replaces the preview file.
func (f *File) Flush(_ context.Context, fb *framebuf.Framebuffer) error {
	if err := checkSize(f, fb); err != nil {
		return err
	}
	data, err := f.enc.Encode(fb, 95)
	if err != nil {
		return fmt.Errorf("panel: encode %s: %w", f.enc.Format(), err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".preview-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	f.Flushes++
	log.Debug().Str("path", f.path).Int("bytes", len(data)).Msg("preview written")
	return nil
}

func (f *File) Close() error { return nil }
