package library

import (
	"fmt"
	"os"
	"strings"

	"github.com/AnyUserName/photoframe/internal/bmp"
)

// Validate checks a raw library document against the photo directory and
// returns one message per problem. It looks at the document as written,
// before the load-time repairs hide anything.
func Validate(d Document, dir string) []string {
	var errs []string
	s := NewStore(dir)

	if d.Version != SupportedDocumentVersion {
		errs = append(errs, fmt.Sprintf("unsupported document version: %d", d.Version))
	}

	ids := map[string]bool{}
	owner := map[string]string{}
	for i, p := range d.Photos {
		if !ValidID(p.ID) {
			errs = append(errs, fmt.Sprintf("photos[%d]: unsafe id %q", i, p.ID))
			continue
		}
		if ids[p.ID] {
			errs = append(errs, fmt.Sprintf("photo %q: duplicate record", p.ID))
		}
		ids[p.ID] = true

		if p.Landscape == "" && p.Portrait == "" {
			errs = append(errs, fmt.Sprintf("photo %q: no variants", p.ID))
		}
		for _, v := range []struct {
			kind Kind
			name string
		}{{Landscape, p.Landscape}, {Portrait, p.Portrait}} {
			if v.name == "" {
				continue
			}
			if !ValidFilename(v.name) {
				errs = append(errs, fmt.Sprintf("photo %q %s: unsafe filename %q", p.ID, v.kind, v.name))
				continue
			}
			if prev, ok := owner[v.name]; ok && prev != p.ID {
				errs = append(errs, fmt.Sprintf("photo %q %s: file %q also used by %q", p.ID, v.kind, v.name, prev))
			}
			owner[v.name] = p.ID

			if !s.Exists(v.name) {
				errs = append(errs, fmt.Sprintf("photo %q %s: file not found: %s", p.ID, v.kind, v.name))
				continue
			}
			if _, _, err := bmp.PeekDimensions(s.FilePath(v.name)); err != nil {
				errs = append(errs, fmt.Sprintf("photo %q %s: %v", p.ID, v.kind, err))
			}
		}
	}

	inOrder := map[string]bool{}
	for i, id := range d.Order {
		switch {
		case !ValidID(id):
			errs = append(errs, fmt.Sprintf("order[%d]: unsafe id %q", i, id))
		case inOrder[id]:
			errs = append(errs, fmt.Sprintf("order[%d]: duplicate id %q", i, id))
		case !ids[id]:
			errs = append(errs, fmt.Sprintf("order[%d]: unknown id %q", i, id))
		}
		inOrder[id] = true
	}
	for id := range ids {
		if !inOrder[id] {
			errs = append(errs, fmt.Sprintf("photo %q: missing from order", id))
		}
	}

	orphans, err := Orphans(owner, dir)
	if err != nil {
		errs = append(errs, fmt.Sprintf("scan %s: %v", dir, err))
	}
	for _, name := range orphans {
		errs = append(errs, fmt.Sprintf("orphan file not referenced by any photo: %s", name))
	}
	return errs
}

// Orphans lists stored-looking BMP files in dir that referenced does not
// mention. Fallback assets and hidden files are not reported.
func Orphans(referenced map[string]string, dir string) ([]string, error) {
	entries, err := ScanDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if _, ok := referenced[e.Name]; ok || strings.HasPrefix(e.Name, "fallback") {
			continue
		}
		out = append(out, e.Name)
	}
	return out, nil
}

// ValidateDir reads library.json from dir and validates it.
func ValidateDir(dir string) ([]string, error) {
	s := NewStore(dir)
	d, err := ReadJSON(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &PersistenceError{Op: "read", Path: s.Path(), Err: err}
		}
		return nil, &PersistenceError{Op: "parse", Path: s.Path(), Err: err}
	}
	return Validate(d, dir), nil
}
