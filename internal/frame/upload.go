package frame

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AnyUserName/photoframe/internal/bmp"
	"github.com/AnyUserName/photoframe/internal/library"
)

// Decision is the selection change an upload causes.
type Decision int

const (
	// DecisionNone leaves the selection alone.
	DecisionNone Decision = iota
	// DecisionPromote makes the uploaded photo current.
	DecisionPromote
	// DecisionPending parks a new photo until its matching variant arrives.
	DecisionPending
	// DecisionRefresh re-resolves the current photo whose variants changed.
	DecisionRefresh
)

func (d Decision) String() string {
	switch d {
	case DecisionPromote:
		return "promote"
	case DecisionPending:
		return "pending"
	case DecisionRefresh:
		return "refresh"
	}
	return "none"
}

// UploadEvent describes a stored upload for Reconcile.
type UploadEvent struct {
	ID    string
	IsNew bool
	Kind  library.Kind
	// Single is set for uploads that carry the one final image: an explicit
	// orientation parameter or a square variant.
	Single bool
}

// Selection is the current/pending pair.
type Selection struct {
	Current string
	Pending string
}

// Reconcile decides how an upload changes the selection at the given frame
// rotation.
//
// A new photo becomes current at once when the upload is single or its
// variant matches the frame orientation; otherwise it waits as pending for
// its sibling. For an existing photo, an update to the current photo
// refreshes the display, the arrival of the pending photo's second variant
// promotes it, and anything else changes nothing.
func Reconcile(ev UploadEvent, sel Selection, rotation int) Decision {
	if ev.IsNew {
		portrait := wantsPortrait(rotation)
		matches := ev.Kind == library.Square ||
			(portrait && ev.Kind == library.Portrait) ||
			(!portrait && ev.Kind == library.Landscape)
		if ev.Single || matches {
			return DecisionPromote
		}
		return DecisionPending
	}
	switch ev.ID {
	case sel.Current:
		return DecisionRefresh
	case sel.Pending:
		return DecisionPromote
	}
	return DecisionNone
}

// UploadRequest carries the upload query parameters.
type UploadRequest struct {
	// Variant is the legacy kind parameter.
	Variant string
	// Orientation overrides Variant when set and marks the upload single.
	Orientation string
	// ID names an existing photo to add a variant to. Empty allocates one.
	ID string
}

// UploadResult reports where an upload went.
type UploadResult struct {
	ID       string
	Kind     library.Kind
	Filename string
	Decision Decision
}

// Upload stores body as a variant of a new or existing photo and applies the
// reconciliation decision. Invalid parameters and bodies are rejected before
// anything is written to the library.
func (c *Controller) Upload(req UploadRequest, body io.Reader) (UploadResult, error) {
	kindName := req.Variant
	if req.Orientation != "" {
		kindName = req.Orientation
	}
	kind, ok := library.ParseKind(kindName)
	if !ok {
		return UploadResult{}, invalid("orientation", "want landscape, portrait or square, got %q", kindName)
	}

	id := trimID(req.ID)
	isNew := id == ""
	if !isNew {
		if !library.ValidID(id) {
			return UploadResult{}, invalid("id", "unsafe photo id %q", id)
		}
		if err := c.lock(); err != nil {
			return UploadResult{}, err
		}
		exists := c.catalog.Has(id)
		c.unlock()
		if !exists {
			return UploadResult{}, fmt.Errorf("photo %q: %w", id, ErrNotFound)
		}
	}

	tmp, err := c.receive(body)
	if err != nil {
		return UploadResult{}, err
	}
	defer os.Remove(tmp)

	if err := c.lock(); err != nil {
		return UploadResult{}, err
	}
	defer c.unlock()

	var replaced string
	if isNew {
		id = c.allocateIDLocked()
	} else {
		rec, ok := c.catalog.Find(id)
		if !ok {
			return UploadResult{}, fmt.Errorf("photo %q: %w", id, ErrNotFound)
		}
		replaced = rec.Variant(kind)
	}
	filename := library.VariantFilename(id, kind)
	if err := os.Rename(tmp, c.store.FilePath(filename)); err != nil {
		return UploadResult{}, fmt.Errorf("store %s: %w", filename, err)
	}

	created := c.catalog.SetVariant(id, kind, filename)
	if replaced != "" && replaced != filename {
		if err := os.Remove(c.store.FilePath(replaced)); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", replaced).Msg("replaced variant not removed")
		}
	}
	if err := c.store.Save(c.catalog); err != nil {
		log.Error().Err(err).Msg("library not saved")
	}

	c.mu.Lock()
	sel := Selection{Current: c.current, Pending: c.pending}
	rot := c.rotation
	c.mu.Unlock()

	ev := UploadEvent{ID: id, IsNew: created, Kind: kind, Single: req.Orientation != "" || kind == library.Square}
	dec := Reconcile(ev, sel, rot)
	switch dec {
	case DecisionPromote:
		c.setCurrentLocked(id)
		c.requestRedraw()
	case DecisionPending:
		c.mu.Lock()
		c.pending = id
		c.mu.Unlock()
	case DecisionRefresh:
		c.refreshLocked()
		c.requestRedraw()
	}

	log.Info().Str("id", id).Str("variant", kind.String()).Str("file", filename).
		Bool("new", created).Str("decision", dec.String()).Msg("photo uploaded")
	return UploadResult{ID: id, Kind: kind, Filename: filename, Decision: dec}, nil
}

// receive copies body into a hidden temp file in the photo directory and
// checks that it starts with a usable bitmap header followed by all the
// pixel data the header claims.
func (c *Controller) receive(body io.Reader) (string, error) {
	f, err := os.CreateTemp(c.opts.PhotoDir, ".upload-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	fail := func(err error) (string, error) {
		f.Close()
		os.Remove(name)
		return "", err
	}

	limit := c.opts.MaxUploadBytes
	src := body
	if limit > 0 {
		src = io.LimitReader(body, limit+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		return fail(fmt.Errorf("receive upload: %w", err))
	}
	if limit > 0 && n > limit {
		return fail(invalid("body", "larger than %d bytes", limit))
	}
	if n == 0 {
		return fail(invalid("body", "empty"))
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fail(err)
	}
	if _, err := bmp.ReadHeader(f); err != nil {
		if errors.Is(err, bmp.ErrBadMagic) || errors.Is(err, bmp.ErrUnsupportedFormat) || errors.Is(err, bmp.ErrTruncated) {
			return fail(invalid("body", "%v", err))
		}
		return fail(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// allocateIDLocked returns the next unused img_NNNNNN id. The library lock
// must be held.
func (c *Controller) allocateIDLocked() string {
	for {
		seq, err := c.kv.Incr(keyPhotoSeq)
		if err != nil {
			log.Warn().Err(err).Msg("photo sequence unavailable, using clock")
			seq = uint64(uint32(time.Now().UnixMicro()))
		}
		id := fmt.Sprintf("img_%06d", seq)
		if !c.catalog.Has(id) {
			return id
		}
	}
}
