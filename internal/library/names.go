package library

import (
	"fmt"
	"strings"
)

// Name limits. Ids and filenames end up in fixed-size persisted slots.
const (
	MaxIDLen       = 63
	MaxFilenameLen = 127
)

// ValidID reports whether id is a safe photo id: 1..63 bytes of
// [A-Za-z0-9_.-], no "..", no path separators.
func ValidID(id string) bool {
	if id == "" || len(id) > MaxIDLen {
		return false
	}
	return safeChars(id)
}

// ValidFilename reports whether name is a safe library file name. On top of
// the id rules it must not start with a dot and must end in ".bmp" (any case).
func ValidFilename(name string) bool {
	if name == "" || len(name) > MaxFilenameLen || name[0] == '.' {
		return false
	}
	if !strings.HasSuffix(strings.ToLower(name), ".bmp") {
		return false
	}
	return safeChars(name)
}

func safeChars(s string) bool {
	if strings.Contains(s, "..") {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '-', c == '.':
		default:
			return false
		}
	}
	return true
}

// Kind is the orientation of one stored variant.
type Kind int

const (
	Landscape Kind = iota
	Portrait
	Square
)

// ParseKind parses "landscape", "portrait" or "square".
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "landscape":
		return Landscape, true
	case "portrait":
		return Portrait, true
	case "square":
		return Square, true
	}
	return Landscape, false
}

func (k Kind) String() string {
	switch k {
	case Portrait:
		return "portrait"
	case Square:
		return "square"
	}
	return "landscape"
}

func (k Kind) marker() string {
	switch k {
	case Portrait:
		return "P"
	case Square:
		return "S"
	}
	return "L"
}

// Rotation is the orientation tag written into the variant's filename.
func (k Kind) Rotation() int {
	if k == Portrait {
		return 90
	}
	return 0
}

// VariantFilename is the stored name of a variant:
// <id>_L_r0.bmp, <id>_P_r90.bmp or <id>_S_r0.bmp.
func VariantFilename(id string, k Kind) string {
	return fmt.Sprintf("%s_%s_r%d.bmp", id, k.marker(), k.Rotation())
}

// variantMarkers are the infixes that separate an id from its variant tag.
var variantMarkers = []string{"_L_", "_P_", "_S_"}

// ExtractID recovers the photo id from a stored filename. The name is cut at
// the first "_r<digit>" marker, or at the extension dot when there is none,
// and at any earlier variant marker.
func ExtractID(name string) (string, bool) {
	cut := rotationMarker(name)
	if cut < 0 {
		cut = strings.LastIndexByte(name, '.')
		if cut < 0 {
			return "", false
		}
	}
	for _, m := range variantMarkers {
		if i := strings.Index(name, m); i >= 0 && i < cut {
			cut = i
		}
	}
	id := name[:cut]
	if !ValidID(id) {
		return "", false
	}
	return id, true
}

// ParseRotation returns the orientation tag encoded as "_r<degrees>" in name,
// or def when the tag is absent or not one of 0, 90, 180, 270.
func ParseRotation(name string, def int) int {
	i := rotationMarker(name)
	if i < 0 {
		return def
	}
	v := 0
	for j := i + 2; j < len(name) && name[j] >= '0' && name[j] <= '9'; j++ {
		v = v*10 + int(name[j]-'0')
		if v > 360 {
			return def
		}
	}
	switch v {
	case 0, 90, 180, 270:
		return v
	}
	return def
}

// HasRotationTag reports whether name carries a "_r<digits>" tag.
func HasRotationTag(name string) bool {
	return rotationMarker(name) >= 0
}

// IsPortraitName classifies a stored file by its variant marker, falling back
// to its rotation tag when there is none.
func IsPortraitName(name string) bool {
	switch {
	case strings.Contains(name, "_P_"):
		return true
	case strings.Contains(name, "_L_"), strings.Contains(name, "_S_"):
		return false
	}
	rot := ParseRotation(name, 0)
	return rot == 90 || rot == 270
}

// rotationMarker returns the index of the first "_r" followed by a digit.
func rotationMarker(name string) int {
	for i := 0; i+2 < len(name); i++ {
		if name[i] == '_' && name[i+1] == 'r' && name[i+2] >= '0' && name[i+2] <= '9' {
			return i
		}
	}
	return -1
}
