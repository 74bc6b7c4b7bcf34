package frame

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/AnyUserName/photoframe/internal/geom"
	"github.com/AnyUserName/photoframe/internal/library"
)

// Select makes id the current photo.
func (c *Controller) Select(raw string) (string, error) {
	id := trimID(raw)
	if !library.ValidID(id) {
		return "", invalid("id", "unsafe photo id %q", id)
	}
	if err := c.lock(); err != nil {
		return "", err
	}
	defer c.unlock()

	if !c.catalog.Has(id) {
		return "", fmt.Errorf("photo %q: %w", id, ErrNotFound)
	}
	c.setCurrentLocked(id)
	c.requestRedraw()
	log.Info().Str("id", id).Msg("photo selected")
	return id, nil
}

// Next advances to the photo after the current one in library order,
// wrapping at the end. An unknown current id restarts at the first photo.
func (c *Controller) Next() (string, error) {
	if err := c.lock(); err != nil {
		return "", err
	}
	defer c.unlock()

	id, err := c.nextLocked()
	if err != nil {
		return "", err
	}
	log.Info().Str("id", id).Msg("advanced to next photo")
	return id, nil
}

func (c *Controller) nextLocked() (string, error) {
	n := c.catalog.Len()
	if n == 0 {
		c.setCurrentLocked("")
		c.requestRedraw()
		return "", ErrNoPhotos
	}

	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()

	next := 0
	if i := c.catalog.Index(cur); i >= 0 {
		next = (i + 1) % n
	}
	id := c.catalog.At(next)
	c.setCurrentLocked(id)
	c.requestRedraw()
	return id, nil
}

// Delete removes a photo and its files. Deleting the current photo restarts
// the selection at the first remaining photo.
func (c *Controller) Delete(raw string) error {
	id := trimID(raw)
	if !library.ValidID(id) {
		return invalid("id", "unsafe photo id %q", id)
	}
	if err := c.lock(); err != nil {
		return err
	}
	defer c.unlock()

	rec, ok := c.catalog.Remove(id)
	if !ok {
		return fmt.Errorf("photo %q: %w", id, ErrNotFound)
	}
	if err := c.store.Save(c.catalog); err != nil {
		log.Error().Err(err).Msg("library not saved")
	}
	for _, name := range rec.Files() {
		if err := os.Remove(c.store.FilePath(name)); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", name).Msg("variant not removed")
		}
	}

	c.mu.Lock()
	wasCurrent, wasPending := c.current == id, c.pending == id
	if wasPending && !wasCurrent {
		c.pending = ""
	}
	c.mu.Unlock()

	if wasCurrent {
		c.setCurrentLocked("")
		if _, err := c.nextLocked(); err != nil {
			log.Info().Msg("library empty, showing fallback")
		}
	}
	log.Info().Str("id", id).Bool("was_current", wasCurrent).Msg("photo deleted")
	return nil
}

// Reorder applies a client-supplied order. Unknown or duplicate ids are
// ignored and photos left out keep their relative order at the end.
func (c *Controller) Reorder(ids []string) error {
	if err := c.lock(); err != nil {
		return err
	}
	defer c.unlock()

	c.catalog.Reorder(ids)
	if err := c.store.Save(c.catalog); err != nil {
		log.Error().Err(err).Msg("library not saved")
	}
	log.Info().Int("photos", c.catalog.Len()).Msg("library reordered")
	return nil
}

// SetRotation changes the frame's mounting rotation and re-resolves the
// display for it.
func (c *Controller) SetRotation(deg int) error {
	if !geom.ValidRotation(deg) {
		return invalid("rotation", "want 0, 90, 180 or 270, got %d", deg)
	}
	if err := c.lock(); err != nil {
		return err
	}
	defer c.unlock()

	c.mu.Lock()
	c.rotation = deg
	c.mu.Unlock()
	c.persistInt(keyRotation, deg)
	c.refreshLocked()
	c.requestRedraw()
	log.Info().Int("rotation", deg).Msg("rotation changed")
	return nil
}

// FilePath returns the on-disk path of a stored variant file.
func (c *Controller) FilePath(name string) (string, error) {
	if !library.ValidFilename(name) {
		return "", invalid("name", "unsafe filename %q", name)
	}
	p := c.store.FilePath(name)
	if !regularFile(p) {
		return "", fmt.Errorf("file %q: %w", name, ErrNotFound)
	}
	return p, nil
}
