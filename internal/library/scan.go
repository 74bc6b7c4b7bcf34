package library

import (
	"os"
)

// Entry is a photo file discovered in the library directory.
type Entry struct {
	// Name is the file name inside the directory.
	Name string
	// ID is the photo id recovered from Name.
	ID string
	// Portrait reports whether the file belongs in the portrait slot.
	Portrait bool
	// Size is the file size in bytes.
	Size int64
}

// ScanDir lists the regular files of dir that look like stored variants, in
// lexical name order. Hidden files, unsafe names and names without a
// recoverable id are skipped.
func ScanDir(dir string) ([]Entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, de := range des {
		name := de.Name()
		if de.IsDir() || !ValidFilename(name) {
			continue
		}
		id, ok := ExtractID(name)
		if !ok {
			continue
		}
		info, err := de.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, Entry{
			Name:     name,
			ID:       id,
			Portrait: IsPortraitName(name),
			Size:     info.Size(),
		})
	}
	return entries, nil
}

// FromScan builds a catalog from scanned entries. The first file per slot
// wins and the order is sorted by id.
func FromScan(entries []Entry) *Catalog {
	c := NewCatalog()
	for _, e := range entries {
		r, ok := c.records[e.ID]
		if !ok {
			r = &Record{ID: e.ID}
			c.records[e.ID] = r
			c.order = append(c.order, e.ID)
		}
		if e.Portrait {
			if r.Portrait == "" {
				r.Portrait = e.Name
			}
		} else if r.Landscape == "" {
			r.Landscape = e.Name
		}
	}
	c.SortOrder()
	return c
}
