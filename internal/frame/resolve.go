package frame

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AnyUserName/photoframe/internal/library"
)

// Fallback asset names inside the fallback directory.
const (
	FallbackLandscape = "fallback_landscape.bmp"
	FallbackPortrait  = "fallback_portrait.bmp"
)

func wantsPortrait(rotation int) bool {
	return rotation == 90 || rotation == 270
}

// Resolve picks the file to show for photo id at the given frame rotation.
//
// The preferred variant is portrait for rotations 90 and 270, landscape
// otherwise; the other variant is the secondary. A variant is used only if
// its file exists. Without a usable variant (or without a current photo) the
// fallback asset for the orientation is returned.
func Resolve(cat *library.Catalog, store *library.Store, fallbackDir, id string, rotation int) Display {
	portrait := wantsPortrait(rotation)

	if id != "" {
		if r, ok := cat.Find(id); ok {
			preferred, secondary := r.Landscape, r.Portrait
			if portrait {
				preferred, secondary = secondary, preferred
			}
			def := 0
			if portrait {
				def = 90
			}
			for _, name := range []string{preferred, secondary} {
				if name != "" && store.Exists(name) {
					return Display{
						Path:          store.FilePath(name),
						ImageRotation: library.ParseRotation(name, def),
						FrameRotation: rotation,
					}
				}
			}
		}
	}
	return fallback(fallbackDir, rotation)
}

// fallback returns the built-in asset for the orientation: the dedicated
// portrait or landscape file, else the first BMP in the directory, else
// nothing. A fallback without a rotation tag is assumed drawn for the frame.
func fallback(dir string, rotation int) Display {
	d := Display{ImageRotation: rotation, FrameRotation: rotation}
	if dir == "" {
		return d
	}

	name := FallbackLandscape
	if wantsPortrait(rotation) {
		name = FallbackPortrait
	}
	if !regularFile(filepath.Join(dir, name)) {
		name = firstBMP(dir)
	}
	if name == "" {
		return d
	}
	d.Path = filepath.Join(dir, name)
	d.ImageRotation = library.ParseRotation(name, rotation)
	return d
}

func firstBMP(dir string) string {
	des, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var names []string
	for _, de := range des {
		n := de.Name()
		if de.IsDir() || strings.HasPrefix(n, ".") || !strings.HasSuffix(strings.ToLower(n), ".bmp") {
			continue
		}
		if regularFile(filepath.Join(dir, n)) {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

func regularFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
