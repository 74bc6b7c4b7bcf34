package profile

import (
	"fmt"
	"sort"
)

// Profile describes a supported e-paper panel.
type Profile struct {
	Name   string
	Width  int // native width in pixels, landscape
	Height int // native height in pixels
	// Upscale lets small photos grow to fill the panel.
	Upscale bool
}

// Default is the profile used when none is configured.
const Default = "epd7in3e"

// Built-in profiles.
var profiles = map[string]Profile{
	"epd7in3e": {
		Name:   "epd7in3e",
		Width:  800,
		Height: 480,
	},
	"epd4in0e": {
		Name:   "epd4in0e",
		Width:  600,
		Height: 400,
	},
	"epd13in3e": {
		Name:   "epd13in3e",
		Width:  1200,
		Height: 1600,
	},
}

// Get returns a profile by name.
func Get(name string) (Profile, error) {
	if name == "" {
		name = Default
	}
	if p, ok := profiles[name]; ok {
		return p, nil
	}
	return Profile{}, fmt.Errorf("profile: unknown panel %q (have %v)", name, Names())
}

// Names lists the built-in profiles in lexical order.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Canvas returns the logical drawing size when the panel is mounted at the
// given rotation: 90 and 270 swap the axes.
func (p Profile) Canvas(rotation int) (w, h int) {
	if rotation == 90 || rotation == 270 {
		return p.Height, p.Width
	}
	return p.Width, p.Height
}

// VariantSize is the pixel size of a prepared variant: landscape variants are
// the native size with the long side horizontal, portrait variants the
// transpose, square variants the short side on both axes.
func (p Profile) VariantSize(kind string) (w, h int) {
	long, short := p.Width, p.Height
	if short > long {
		long, short = short, long
	}
	switch kind {
	case "portrait":
		return short, long
	case "square":
		return short, short
	}
	return long, short
}
