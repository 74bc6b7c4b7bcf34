package frame

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AnyUserName/photoframe/internal/kvstore"
)

// AllowedIntervals lists the slideshow intervals in seconds.
var AllowedIntervals = []uint32{300, 600, 900, 1800, 3600, 10800, 21600, 86400, 259200, 604800}

// IntervalAllowed reports whether s is one of AllowedIntervals.
func IntervalAllowed(s uint32) bool {
	for _, v := range AllowedIntervals {
		if v == s {
			return true
		}
	}
	return false
}

// Slideshow holds the automatic advance settings.
type Slideshow struct {
	Enabled   bool   `json:"enabled"`
	IntervalS uint32 `json:"interval_s"`
}

// DefaultSlideshow is disabled with an hourly interval.
func DefaultSlideshow() Slideshow {
	return Slideshow{Enabled: false, IntervalS: 3600}
}

// SlideshowPatch is a partial update; nil fields keep their value.
type SlideshowPatch struct {
	Enabled   *bool   `json:"enabled"`
	IntervalS *uint32 `json:"interval_s"`
}

// Slideshow returns the current settings.
func (c *Controller) Slideshow() Slideshow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slideshow
}

// UpdateSlideshow applies p, persists the result and restarts the slideshow
// timer.
func (c *Controller) UpdateSlideshow(p SlideshowPatch) (Slideshow, error) {
	c.mu.Lock()
	s := c.slideshow
	c.mu.Unlock()

	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.IntervalS != nil {
		s.IntervalS = *p.IntervalS
	}
	if !IntervalAllowed(s.IntervalS) {
		return Slideshow{}, invalid("interval_s", "%d is not an allowed interval", s.IntervalS)
	}

	c.mu.Lock()
	c.slideshow = s
	c.mu.Unlock()

	if err := kvstore.SetBool(c.kv, keySlideshowEnabled, s.Enabled); err != nil {
		log.Warn().Err(err).Msg("slideshow not persisted")
	}
	c.persistInt(keySlideshowInterval, int(s.IntervalS))

	select {
	case c.kick <- struct{}{}:
	default:
	}
	log.Info().Bool("enabled", s.Enabled).Uint32("interval_s", s.IntervalS).Msg("slideshow updated")
	return s, nil
}

// RunSlideshow advances to the next photo every interval while the slideshow
// is enabled. It returns when ctx is done.
func (c *Controller) RunSlideshow(ctx context.Context) {
	for {
		s := c.Slideshow()
		var tick <-chan time.Time
		var t *time.Timer
		if s.Enabled {
			t = time.NewTimer(time.Duration(s.IntervalS) * c.opts.SlideshowUnit)
			tick = t.C
		}

		select {
		case <-ctx.Done():
			if t != nil {
				t.Stop()
			}
			return
		case <-c.kick:
			if t != nil {
				t.Stop()
			}
		case <-tick:
			switch _, err := c.Next(); {
			case errors.Is(err, ErrNoPhotos):
				log.Debug().Msg("slideshow: library empty")
			case err != nil:
				log.Warn().Err(err).Msg("slideshow advance failed")
			}
		}
	}
}
