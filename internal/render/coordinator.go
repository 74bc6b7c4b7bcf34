// Package render turns the frame's resolved display state into panel
// pixels. One Coordinator owns the framebuffer and the panel; redraw
// requests coalesce and at most one redraw runs at a time.
package render

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AnyUserName/photoframe/internal/bmp"
	"github.com/AnyUserName/photoframe/internal/frame"
	"github.com/AnyUserName/photoframe/internal/framebuf"
	"github.com/AnyUserName/photoframe/internal/geom"
	"github.com/AnyUserName/photoframe/internal/hasher"
	"github.com/AnyUserName/photoframe/internal/palette"
	"github.com/AnyUserName/photoframe/internal/panel"
)

// Source supplies what to draw and takes decode failures back.
type Source interface {
	Display() frame.Display
	DisplayFailed(path string)
}

// Options tune a Coordinator.
type Options struct {
	AllowUpscale bool
	// Quiet delays redraws during network activity. Nil disables the wait.
	Quiet *Quiet
}

// Outcome is what a redraw did.
type Outcome int

const (
	Flushed Outcome = iota
	// Unchanged means the frame equals the one on the panel.
	Unchanged
	// Failed means nothing reached the panel.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Failed:
		return "failed"
	}
	return "flushed"
}

// Stats counts redraw outcomes.
type Stats struct {
	Redraws   int
	Flushes   int
	Unchanged int
	Failures  int
	LastPath  string
	LastHash  string
	LastFlush time.Time
}

// Coordinator serializes decode, paint and flush.
type Coordinator struct {
	src   Source
	panel panel.Panel
	opts  Options

	req    chan struct{}
	decode func(path string) (*bmp.Image, error)

	gate    sync.Mutex // held for a whole redraw
	fb      *framebuf.Framebuffer
	last    hasher.Sum
	flushed bool

	mu    sync.Mutex
	stats Stats
}

// New returns a coordinator drawing src onto p.
func New(src Source, p panel.Panel, opts Options) *Coordinator {
	w, h := p.Size()
	return &Coordinator{
		src:    src,
		panel:  p,
		opts:   opts,
		req:    make(chan struct{}, 1),
		decode: bmp.DecodeFile,
		fb:     framebuf.New(w, h),
	}
}

// Request asks for a redraw. It never blocks; pending requests coalesce.
func (c *Coordinator) Request() {
	select {
	case c.req <- struct{}{}:
	default:
	}
}

// Run serves redraw requests until ctx is done.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.req:
		}
		if c.opts.Quiet != nil && !c.opts.Quiet.Wait(ctx) {
			if ctx.Err() != nil {
				return
			}
			log.Debug().Msg("network still busy, redrawing anyway")
		}
		if _, err := c.Redraw(ctx); err != nil {
			log.Error().Err(err).Msg("redraw failed")
		}
	}
}

// Redraw draws the current display state now.
func (c *Coordinator) Redraw(ctx context.Context) (Outcome, error) {
	c.gate.Lock()
	defer c.gate.Unlock()

	d := c.src.Display()
	c.update(func(s *Stats) { s.Redraws++ })
	c.fb.Clear(palette.White)
	cv := c.fb.Canvas(d.FrameRotation)

	if d.Path != "" {
		// The header must describe a bitmap the file can actually hold
		// before any pixel memory is allocated.
		w, h, err := bmp.PeekDimensions(d.Path)
		if err != nil {
			return c.failed(d.Path, err)
		}
		delta := geom.Delta(d.ImageRotation, d.FrameRotation)
		viewW, viewH := geom.RotatedSize(w, h, delta)
		fit := geom.Fit(viewW, viewH, cv.Width, cv.Height, c.opts.AllowUpscale)
		log.Debug().Str("path", d.Path).Int("src_w", w).Int("src_h", h).
			Bool("scaled", fit.W != viewW || fit.H != viewH).Msg("peeked")

		img, err := c.decode(d.Path)
		if err != nil {
			return c.failed(d.Path, err)
		}
		pl := Paint(cv, img, d.ImageRotation, c.opts.AllowUpscale)
		log.Debug().Str("path", d.Path).Str("model", img.Model.String()).
			Int("image_rotation", d.ImageRotation).Int("rotation", d.FrameRotation).
			Int("w", pl.W).Int("h", pl.H).Int("x", pl.X).Int("y", pl.Y).Msg("painted")
	} else {
		log.Info().Msg("nothing to display, clearing panel")
	}

	sum := hasher.Bytes(c.fb.Pix)
	if c.flushed && sum == c.last {
		c.update(func(s *Stats) { s.Unchanged++ })
		log.Debug().Str("hash", sum.Hex(0)).Msg("frame unchanged, panel not refreshed")
		return Unchanged, nil
	}
	if err := c.panel.Flush(ctx, c.fb); err != nil {
		return Failed, err
	}
	c.last, c.flushed = sum, true
	c.update(func(s *Stats) {
		s.Flushes++
		s.LastPath = d.Path
		s.LastHash = sum.Hex(0)
		s.LastFlush = time.Now()
	})
	log.Info().Str("path", d.Path).Str("hash", sum.Hex(0)).Msg("panel updated")
	return Flushed, nil
}

// failed records a decode failure for path so the next trigger falls back.
func (c *Coordinator) failed(path string, err error) (Outcome, error) {
	c.update(func(s *Stats) { s.Failures++ })
	c.src.DisplayFailed(path)
	log.Warn().Err(err).Str("path", path).Msg("image not drawable")
	return Failed, err
}

// Stats returns the redraw counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Coordinator) update(f func(*Stats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}

// Framebuffer exposes the last painted frame for previews. It must not be
// used while a redraw may run.
func (c *Coordinator) Framebuffer() *framebuf.Framebuffer { return c.fb }
