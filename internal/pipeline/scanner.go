package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/photoframe/internal/library"
)

// Source represents a discovered image file.
type Source struct {
	// AbsPath is the absolute path to the file on disk.
	AbsPath string
	// RelPath is the path relative to the input directory.
	RelPath string
	// ID is the photo id the variants are stored under.
	ID string
	// Format is the source format (png, jpeg, webp, gif, bmp, tiff).
	Format string
	// Size is the file size in bytes.
	Size int64
}

// imageExtensions lists recognized image file extensions.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// maxIDLen leaves room for the longest variant suffix inside the id limit.
const maxIDLen = 48

// ScanImages walks the input directory and returns all image sources in
// lexical path order.
func ScanImages(inputDir string) ([]Source, error) {
	var sources []Source

	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != inputDir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !imageExtensions[ext] {
			return nil
		}

		relPath, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}

		format := strings.TrimPrefix(ext, ".")
		switch format {
		case "jpg":
			format = "jpeg"
		case "tif":
			format = "tiff"
		}

		sources = append(sources, Source{
			AbsPath: path,
			RelPath: filepath.ToSlash(relPath),
			ID:      SourceID(relPath),
			Format:  format,
			Size:    info.Size(),
		})
		return nil
	})

	return sources, err
}

// SourceID turns a relative image path into a photo id: the path without
// its extension, with separators and every other character outside
// [A-Za-z0-9-] replaced by dashes. Underscores are replaced too, so the id
// never contains a variant or rotation marker.
func SourceID(relPath string) string {
	key := strings.TrimSuffix(filepath.ToSlash(relPath), filepath.Ext(relPath))
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	id := strings.Trim(b.String(), "-")
	if len(id) > maxIDLen {
		id = id[:maxIDLen]
	}
	if !library.ValidID(id) {
		return "photo"
	}
	return id
}
