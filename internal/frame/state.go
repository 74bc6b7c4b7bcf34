// Package frame owns the photo frame's library and selection state: which
// photo is current, which stored variant is shown for the frame's rotation,
// and the upload, select, next, delete and reorder operations that change
// them.
//
// Locking: the library lock (a one-slot channel with a bounded wait) guards
// the catalog and every library.json write. The state mutex guards the
// selection and display fields and is only held for field updates. When both
// are needed the library lock is taken first.
package frame

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AnyUserName/photoframe/internal/geom"
	"github.com/AnyUserName/photoframe/internal/kvstore"
	"github.com/AnyUserName/photoframe/internal/library"
)

// Keys of the persisted state.
const (
	keyCurrentPhotoID    = "cur_photo_id"
	keyRotation          = "rotation"
	keyImageRotation     = "image_rotation"
	keyCurrentImage      = "current_image"
	keyPhotoSeq          = "photo_seq"
	keySlideshowEnabled  = "slideshow_en"
	keySlideshowInterval = "slideshow_int_s"

	maxCurrentImageLen = 191
)

// Notifier receives redraw requests. Requests must not block.
type Notifier interface {
	Request()
}

// Display is what the panel should show.
type Display struct {
	// Path is the file to draw; empty means nothing is displayable.
	Path string
	// ImageRotation is the orientation the stored image was drawn for.
	ImageRotation int
	// FrameRotation is the frame's mounting rotation.
	FrameRotation int
}

// Options configures a Controller.
type Options struct {
	PhotoDir        string
	FallbackDir     string
	DefaultRotation int
	LockTimeout     time.Duration
	MaxUploadBytes  int64
	// SlideshowUnit is the length of one interval second. Zero means
	// time.Second.
	SlideshowUnit time.Duration
}

// Controller is the frame's state machine.
type Controller struct {
	opts   Options
	store  *library.Store
	kv     kvstore.Store
	notify Notifier

	lib     chan struct{}
	catalog *library.Catalog

	mu        sync.Mutex
	rotation  int
	current   string
	pending   string
	display   Display
	failed    string
	fbFailed  string
	slideshow Slideshow
	legacy    string

	kick chan struct{}
}

// New returns a controller. Call Init before use.
func New(opts Options, kv kvstore.Store) *Controller {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 2 * time.Second
	}
	if !geom.ValidRotation(opts.DefaultRotation) {
		opts.DefaultRotation = 180
	}
	if opts.SlideshowUnit <= 0 {
		opts.SlideshowUnit = time.Second
	}
	return &Controller{
		opts:      opts,
		store:     library.NewStore(opts.PhotoDir),
		kv:        kv,
		lib:       make(chan struct{}, 1),
		catalog:   library.NewCatalog(),
		rotation:  opts.DefaultRotation,
		slideshow: DefaultSlideshow(),
		kick:      make(chan struct{}, 1),
	}
}

// SetNotifier sets the redraw target. It must be called before Init.
func (c *Controller) SetNotifier(n Notifier) {
	c.notify = n
}

// Store is the library store of the photo directory.
func (c *Controller) Store() *library.Store { return c.store }

func (c *Controller) requestRedraw() {
	if c.notify != nil {
		c.notify.Request()
	}
}

func (c *Controller) lock() error {
	t := time.NewTimer(c.opts.LockTimeout)
	defer t.Stop()
	select {
	case c.lib <- struct{}{}:
		return nil
	case <-t.C:
		return ErrBusy
	}
}

func (c *Controller) unlock() { <-c.lib }

// Init loads the persisted state and the library and resolves what to show.
func (c *Controller) Init() error {
	c.loadState()

	if err := os.MkdirAll(c.opts.PhotoDir, 0o755); err != nil {
		return err
	}
	if err := c.lock(); err != nil {
		return err
	}
	defer c.unlock()

	cat, src, err := c.store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("library load failed, starting empty")
	}
	c.catalog = cat
	log.Info().Str("source", src.String()).Int("photos", cat.Len()).Msg("library loaded")

	c.mu.Lock()
	cur, legacy := c.current, c.legacy
	c.mu.Unlock()

	if cur == "" && legacy != "" {
		if id, ok := library.ExtractID(filepath.Base(legacy)); ok {
			log.Info().Str("id", id).Str("path", legacy).Msg("migrating legacy current image")
			cur = id
		}
	}

	if cur == "" || !c.catalog.Has(cur) {
		first := ""
		if c.catalog.Len() > 0 {
			first = c.catalog.At(0)
		}
		c.setCurrentLocked(first)
	} else {
		c.mu.Lock()
		c.current = cur
		c.mu.Unlock()
		c.persistString(keyCurrentPhotoID, cur)
		c.refreshLocked()
	}
	c.requestRedraw()
	return nil
}

func (c *Controller) loadState() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rot, ok, err := kvstore.GetInt(c.kv, keyRotation); err == nil && ok && geom.ValidRotation(rot) {
		c.rotation = rot
	} else if err != nil {
		log.Warn().Err(err).Msg("stored rotation unreadable")
	}

	c.display.FrameRotation = c.rotation
	c.display.ImageRotation = c.rotation
	if rot, ok, err := kvstore.GetInt(c.kv, keyImageRotation); err == nil && ok && geom.ValidRotation(rot) {
		c.display.ImageRotation = rot
	}

	if v, ok, err := c.kv.Get(keyCurrentImage); err == nil && ok {
		c.legacy = v
		c.display.Path = v
	}
	if v, ok, err := c.kv.Get(keyCurrentPhotoID); err == nil && ok && library.ValidID(v) {
		c.current = v
	}

	if en, ok, err := kvstore.GetBool(c.kv, keySlideshowEnabled); err == nil && ok {
		c.slideshow.Enabled = en
	}
	if iv, ok, err := kvstore.GetInt(c.kv, keySlideshowInterval); err == nil && ok && IntervalAllowed(uint32(iv)) {
		c.slideshow.IntervalS = uint32(iv)
	}
}

// Saved is the persisted state as stored, read without a library.
type Saved struct {
	Rotation     int // -1 when unset
	CurrentID    string
	CurrentImage string
	Slideshow    Slideshow
}

// ReadSaved reads the persisted state. Unset or invalid values keep their
// defaults.
func ReadSaved(kv kvstore.Store) (Saved, error) {
	s := Saved{Rotation: -1, Slideshow: DefaultSlideshow()}
	rot, ok, err := kvstore.GetInt(kv, keyRotation)
	if err != nil {
		return s, err
	}
	if ok && geom.ValidRotation(rot) {
		s.Rotation = rot
	}
	if v, ok, err := kv.Get(keyCurrentPhotoID); err == nil && ok && library.ValidID(v) {
		s.CurrentID = v
	}
	if v, ok, err := kv.Get(keyCurrentImage); err == nil && ok {
		s.CurrentImage = v
	}
	if en, ok, err := kvstore.GetBool(kv, keySlideshowEnabled); err == nil && ok {
		s.Slideshow.Enabled = en
	}
	if iv, ok, err := kvstore.GetInt(kv, keySlideshowInterval); err == nil && ok && iv > 0 && IntervalAllowed(uint32(iv)) {
		s.Slideshow.IntervalS = uint32(iv)
	}
	return s, nil
}

// setCurrentLocked makes id current, clears pending, persists the id and
// re-resolves the display. The library lock must be held.
func (c *Controller) setCurrentLocked(id string) {
	c.mu.Lock()
	c.current = id
	c.pending = ""
	c.mu.Unlock()

	c.persistString(keyCurrentPhotoID, id)
	c.refreshLocked()
}

// refreshLocked re-resolves the display for the current id and rotation.
// The library lock must be held.
func (c *Controller) refreshLocked() {
	c.mu.Lock()
	id, rot := c.current, c.rotation
	c.mu.Unlock()

	d := Resolve(c.catalog, c.store, c.opts.FallbackDir, id, rot)

	c.mu.Lock()
	c.failed, c.fbFailed = "", ""
	c.display = d
	c.mu.Unlock()

	c.persistString(keyCurrentImage, kvstore.Truncate(d.Path, maxCurrentImageLen))
	c.persistInt(keyImageRotation, d.ImageRotation)
	log.Debug().Str("id", id).Str("path", d.Path).Int("image_rotation", d.ImageRotation).Int("rotation", rot).Msg("display resolved")
}

func (c *Controller) persistString(key, value string) {
	if err := c.kv.Set(key, value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("state not persisted")
	}
}

func (c *Controller) persistInt(key string, value int) {
	if err := kvstore.SetInt(c.kv, key, value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("state not persisted")
	}
}

// Display returns what the panel should show now. After DisplayFailed for
// the resolved path, the fallback asset is returned instead, and nothing once
// the fallback has failed as well.
func (c *Controller) Display() Display {
	c.mu.Lock()
	d, failed, fbFailed := c.display, c.failed, c.fbFailed
	c.mu.Unlock()

	if failed == "" || failed != d.Path {
		return d
	}
	fb := fallback(c.opts.FallbackDir, d.FrameRotation)
	if fb.Path == failed || (fbFailed != "" && fb.Path == fbFailed) {
		return Display{FrameRotation: d.FrameRotation, ImageRotation: d.FrameRotation}
	}
	return fb
}

// DisplayFailed records that path could not be decoded. Failures are kept
// until the display is resolved again.
func (c *Controller) DisplayFailed(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case path == "":
	case path == c.display.Path:
		c.failed = path
	case c.failed != "":
		c.fbFailed = path
	}
}

// Rotation is the frame's mounting rotation.
func (c *Controller) Rotation() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotation
}

// Current is the current photo id, possibly empty.
func (c *Controller) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Pending is the id waiting for its matching variant, possibly empty.
func (c *Controller) Pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Listing is the library as presented to clients.
type Listing struct {
	Rotation   int
	Current    string
	Displaying string
	Photos     []library.Record
}

// List returns the ordered library and the selection.
func (c *Controller) List() (Listing, error) {
	if err := c.lock(); err != nil {
		return Listing{}, err
	}
	photos := c.catalog.Ordered()
	c.unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	l := Listing{
		Rotation: c.rotation,
		Current:  c.current,
		Photos:   photos,
	}
	if base := filepath.Base(c.display.Path); c.display.Path != "" && library.ValidFilename(base) {
		l.Displaying = base
	}
	return l, nil
}

// Status is a diagnostic snapshot.
type Status struct {
	Rotation  int
	Current   string
	Pending   string
	Display   Display
	Failed    string
	Photos    int
	Slideshow Slideshow
}

// Status returns a diagnostic snapshot.
func (c *Controller) Status() (Status, error) {
	if err := c.lock(); err != nil {
		return Status{}, err
	}
	n := c.catalog.Len()
	c.unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Rotation:  c.rotation,
		Current:   c.current,
		Pending:   c.pending,
		Display:   c.display,
		Failed:    c.failed,
		Photos:    n,
		Slideshow: c.slideshow,
	}, nil
}

func trimID(raw string) string {
	return strings.TrimSpace(raw)
}
