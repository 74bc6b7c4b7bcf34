// Package library persists the photo catalog: the ordered set of photo
// records and their stored variant files, kept in library.json next to the
// photos and rebuilt from a directory scan whenever that document is
// missing or unusable.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// DocumentName is the catalog file inside the photo directory.
const DocumentName = "library.json"

// Source tells where a loaded catalog came from.
type Source int

const (
	SourceDocument Source = iota
	SourceScan
)

func (s Source) String() string {
	if s == SourceScan {
		return "scan"
	}
	return "document"
}

// PersistenceError reports a failed read or write of library state.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("library: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store reads and writes the catalog of one photo directory.
type Store struct {
	dir string
}

// NewStore returns a store for the photos in dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir is the photo directory.
func (s *Store) Dir() string { return s.dir }

// Path is the full path of library.json.
func (s *Store) Path() string { return filepath.Join(s.dir, DocumentName) }

// FilePath joins a validated variant filename onto the photo directory.
func (s *Store) FilePath(name string) string { return filepath.Join(s.dir, name) }

// Load returns the catalog from library.json. When the document is absent,
// empty, oversized, unparsable or describes no photos, the catalog is
// rebuilt from the directory and written back.
func (s *Store) Load() (*Catalog, Source, error) {
	d, err := ReadJSON(s.Path())
	if err == nil {
		c := FromDocument(d)
		if c.Len() > 0 {
			return c, SourceDocument, nil
		}
		err = errors.New("no usable photos")
	}
	if !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", s.Path()).Msg("library document unusable, rebuilding from scan")
	}

	c, err := s.Rebuild()
	if c == nil {
		return NewCatalog(), SourceScan, err
	}
	if err != nil {
		// The scanned catalog is still good in memory.
		log.Warn().Err(err).Msg("library write-back failed")
	}
	return c, SourceScan, nil
}

// Rebuild scans the directory, replaces library.json with the result and
// returns it. A nil catalog means the scan itself failed; a non-nil catalog
// with an error means only the write-back failed.
func (s *Store) Rebuild() (*Catalog, error) {
	entries, err := ScanDir(s.dir)
	if err != nil {
		return nil, &PersistenceError{Op: "scan", Path: s.dir, Err: err}
	}
	c := FromScan(entries)
	log.Info().Int("photos", c.Len()).Int("files", len(entries)).Msg("library rebuilt from scan")
	return c, s.Save(c)
}

// Save replaces library.json with the full catalog.
func (s *Store) Save(c *Catalog) error {
	if err := WriteJSON(c.Document(), s.Path()); err != nil {
		return &PersistenceError{Op: "save", Path: s.Path(), Err: err}
	}
	return nil
}

// Exists reports whether a variant file is present as a regular file.
func (s *Store) Exists(name string) bool {
	if !ValidFilename(name) {
		return false
	}
	fi, err := os.Stat(s.FilePath(name))
	return err == nil && fi.Mode().IsRegular()
}
