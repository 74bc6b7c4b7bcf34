package library

import "sort"

// Record is one photo and the filenames of its stored variants. Square
// uploads occupy the landscape slot.
type Record struct {
	ID        string `json:"id"`
	Landscape string `json:"landscape"`
	Portrait  string `json:"portrait"`
}

// Empty reports whether the record has no variant left.
func (r Record) Empty() bool {
	return r.Landscape == "" && r.Portrait == ""
}

// Variant returns the filename stored for kind.
func (r Record) Variant(k Kind) string {
	if k == Portrait {
		return r.Portrait
	}
	return r.Landscape
}

// Files returns the distinct non-empty variant filenames.
func (r Record) Files() []string {
	var out []string
	if r.Landscape != "" {
		out = append(out, r.Landscape)
	}
	if r.Portrait != "" && r.Portrait != r.Landscape {
		out = append(out, r.Portrait)
	}
	return out
}

// Catalog is the in-memory photo library: records keyed by id plus the
// display order. Every id in the order has a record and vice versa.
//
// A Catalog is not safe for concurrent use; the owner serializes access.
type Catalog struct {
	records map[string]*Record
	order   []string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{records: make(map[string]*Record)}
}

// Len is the number of photos.
func (c *Catalog) Len() int { return len(c.order) }

// Has reports whether id has a record.
func (c *Catalog) Has(id string) bool {
	_, ok := c.records[id]
	return ok
}

// Find returns a copy of the record for id.
func (c *Catalog) Find(id string) (Record, bool) {
	r, ok := c.records[id]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Index returns the position of id in the order, or -1.
func (c *Catalog) Index(id string) int {
	for i, v := range c.order {
		if v == id {
			return i
		}
	}
	return -1
}

// Order returns a copy of the display order.
func (c *Catalog) Order() []string {
	return append([]string(nil), c.order...)
}

// Ordered returns copies of all records in display order.
func (c *Catalog) Ordered() []Record {
	out := make([]Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.records[id])
	}
	return out
}

// At returns the id at position i of the order.
func (c *Catalog) At(i int) string { return c.order[i] }

// SetVariant stores filename as the kind variant of id, creating the record
// (appended to the order) when it does not exist yet. It reports whether the
// record was created. An empty filename never creates a record.
func (c *Catalog) SetVariant(id string, k Kind, filename string) bool {
	r, ok := c.records[id]
	if !ok {
		if filename == "" {
			return false
		}
		r = &Record{ID: id}
		c.records[id] = r
		c.order = append(c.order, id)
	}
	if k == Portrait {
		r.Portrait = filename
	} else {
		r.Landscape = filename
	}
	if r.Empty() {
		c.Remove(id)
	}
	return !ok
}

// Remove deletes id from the records and the order.
func (c *Catalog) Remove(id string) (Record, bool) {
	r, ok := c.records[id]
	if !ok {
		return Record{}, false
	}
	delete(c.records, id)
	if i := c.Index(id); i >= 0 {
		c.order = append(c.order[:i], c.order[i+1:]...)
	}
	return *r, true
}

// Reorder replaces the display order. Unknown, unsafe and duplicate ids in
// ids are ignored; photos ids does not mention keep their previous relative
// order after the listed ones.
func (c *Catalog) Reorder(ids []string) {
	next := make([]string, 0, len(c.order))
	seen := make(map[string]bool, len(c.order))
	for _, id := range ids {
		if !ValidID(id) || seen[id] || !c.Has(id) {
			continue
		}
		seen[id] = true
		next = append(next, id)
	}
	for _, id := range c.order {
		if !seen[id] {
			seen[id] = true
			next = append(next, id)
		}
	}
	c.order = next
}

// Repair drops order entries without a record (and duplicates), then appends
// records missing from the order in id order.
func (c *Catalog) Repair() {
	seen := make(map[string]bool, len(c.records))
	kept := c.order[:0]
	for _, id := range c.order {
		if seen[id] || !c.Has(id) {
			continue
		}
		seen[id] = true
		kept = append(kept, id)
	}
	var missing []string
	for id := range c.records {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	c.order = append(kept, missing...)
}

// SortOrder orders ids lexicographically.
func (c *Catalog) SortOrder() {
	sort.Strings(c.order)
}

// Clone returns a deep copy.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		records: make(map[string]*Record, len(c.records)),
		order:   c.Order(),
	}
	for id, r := range c.records {
		cp := *r
		out.records[id] = &cp
	}
	return out
}

// Filenames returns the set of variant filenames referenced by the catalog.
func (c *Catalog) Filenames() map[string]string {
	out := make(map[string]string)
	for _, id := range c.order {
		for _, f := range c.records[id].Files() {
			out[f] = id
		}
	}
	return out
}
