package library

import (
	"os"
	"strings"
)

// Stats summarizes a catalog and the files behind it.
type Stats struct {
	Photos       int
	Landscape    int // photos with a landscape (non-square) variant
	Portrait     int // photos with a portrait variant
	Square       int // photos stored as a single square variant
	BothVariants int
	Files        int
	MissingFiles int
	TotalBytes   int64
	LargestID    string
	LargestBytes int64
	Orphans      []string
}

// ComputeStats walks the catalog and stats every variant file in dir.
func ComputeStats(c *Catalog, dir string) Stats {
	var st Stats
	s := NewStore(dir)
	st.Photos = c.Len()

	for _, r := range c.Ordered() {
		switch {
		case strings.Contains(r.Landscape, "_S_"):
			st.Square++
		case r.Landscape != "":
			st.Landscape++
		}
		if r.Portrait != "" {
			st.Portrait++
		}
		if r.Landscape != "" && r.Portrait != "" {
			st.BothVariants++
		}

		var size int64
		for _, name := range r.Files() {
			fi, err := os.Stat(s.FilePath(name))
			if err != nil {
				st.MissingFiles++
				continue
			}
			st.Files++
			size += fi.Size()
		}
		st.TotalBytes += size
		if size > st.LargestBytes {
			st.LargestID, st.LargestBytes = r.ID, size
		}
	}

	if orphans, err := Orphans(c.Filenames(), dir); err == nil {
		st.Orphans = orphans
	}
	return st
}
