package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SupportedDocumentVersion is the current library.json schema version.
const SupportedDocumentVersion = 1

// MaxDocumentSize bounds library.json. Larger files are treated as corrupt.
const MaxDocumentSize = 64 << 10

// Document is the on-disk form of a Catalog.
type Document struct {
	Version int      `json:"version"`
	Order   []string `json:"order"`
	Photos  []Record `json:"photos"`
}

// Document serializes the catalog. Photos are listed in display order.
func (c *Catalog) Document() Document {
	d := Document{
		Version: SupportedDocumentVersion,
		Order:   c.Order(),
		Photos:  c.Ordered(),
	}
	if d.Order == nil {
		d.Order = []string{}
	}
	return d
}

// FromDocument builds a catalog from a parsed document. Records with an
// unsafe id lose nothing but themselves; unsafe variant names are cleared and
// records left without a variant are dropped. Duplicate records merge. The
// order keeps safe, known ids in their listed order and then appends records
// it did not mention in the order the photos were listed.
func FromDocument(d Document) *Catalog {
	c := NewCatalog()
	var listed []string
	for _, p := range d.Photos {
		if !ValidID(p.ID) {
			continue
		}
		r, ok := c.records[p.ID]
		if !ok {
			r = &Record{ID: p.ID}
			c.records[p.ID] = r
			listed = append(listed, p.ID)
		}
		if ValidFilename(p.Landscape) {
			r.Landscape = p.Landscape
		}
		if ValidFilename(p.Portrait) {
			r.Portrait = p.Portrait
		}
	}
	for id, r := range c.records {
		if r.Empty() {
			delete(c.records, id)
		}
	}

	seen := make(map[string]bool, len(c.records))
	for _, id := range d.Order {
		if !ValidID(id) || seen[id] || !c.Has(id) {
			continue
		}
		seen[id] = true
		c.order = append(c.order, id)
	}
	for _, id := range listed {
		if !seen[id] && c.Has(id) {
			seen[id] = true
			c.order = append(c.order, id)
		}
	}
	return c
}

// rawDocument tolerates entries of the wrong JSON type so that one bad
// record does not discard the whole library.
type rawDocument struct {
	Version int               `json:"version"`
	Order   []json.RawMessage `json:"order"`
	Photos  []json.RawMessage `json:"photos"`
}

// ParseDocument decodes library.json bytes, skipping malformed entries.
func ParseDocument(data []byte) (Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, err
	}
	d := Document{Version: raw.Version}
	for _, m := range raw.Order {
		var id string
		if json.Unmarshal(m, &id) == nil {
			d.Order = append(d.Order, id)
		}
	}
	for _, m := range raw.Photos {
		var r Record
		if json.Unmarshal(m, &r) == nil {
			d.Photos = append(d.Photos, r)
		}
	}
	return d, nil
}

// ReadJSON reads and parses a library document, enforcing MaxDocumentSize.
func ReadJSON(path string) (Document, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Document{}, err
	}
	if fi.Size() <= 0 {
		return Document{}, fmt.Errorf("%s: empty document", path)
	}
	if fi.Size() > MaxDocumentSize {
		return Document{}, fmt.Errorf("%s: document is %d bytes, limit %d", path, fi.Size(), MaxDocumentSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return ParseDocument(data)
}

// WriteJSON replaces path with the serialized document. The bytes go to a
// temporary file in the same directory first and are renamed into place, so
// readers see either the old or the new library, never a prefix.
func WriteJSON(d Document, path string) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".library-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
