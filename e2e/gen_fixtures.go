//go:build ignore

// gen_fixtures creates a small photo library and fallback assets for a
// manual frame smoke test.
// Usage: go run gen_fixtures.go <photo_dir> <fallback_dir> [width height]
package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/image/bmp"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <photo_dir> <fallback_dir> [width height]")
		os.Exit(1)
	}
	photos, fallback := os.Args[1], os.Args[2]
	w, h := 800, 480
	if len(os.Args) == 5 {
		w, _ = strconv.Atoi(os.Args[3])
		h, _ = strconv.Atoi(os.Args[4])
	}
	os.MkdirAll(photos, 0o755)
	os.MkdirAll(fallback, 0o755)

	// Two photos with both variants.
	for i := 1; i <= 2; i++ {
		id := fmt.Sprintf("sample-%d", i)
		writeBMP(filepath.Join(photos, id+"_L_r0.bmp"), gradient(w, h, uint8(i*90)))
		writeBMP(filepath.Join(photos, id+"_P_r90.bmp"), gradient(h, w, uint8(i*90)))
	}

	// One square photo.
	writeBMP(filepath.Join(photos, "sample-sq_S_r0.bmp"), bands(h, h))

	// Fallbacks: black border on white.
	writeBMP(filepath.Join(fallback, "fallback_landscape.bmp"), framed(w, h))
	writeBMP(filepath.Join(fallback, "fallback_portrait.bmp"), framed(h, w))

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 5 photos in %s and 2 fallbacks in %s\n", photos, fallback)
}

// Every fixture is opaque RGBA so the encoder writes 24-bit BMPs.

func gradient(w, h int, blue uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: blue,
				A: 255,
			})
		}
	}
	return img
}

// bands paints the six inks as vertical stripes.
func bands(w, h int) *image.RGBA {
	inks := []color.RGBA{
		{0, 0, 0, 255},
		{255, 255, 255, 255},
		{255, 255, 0, 255},
		{255, 0, 0, 255},
		{0, 0, 255, 255},
		{0, 255, 0, 255},
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, inks[x*len(inks)/w])
		}
	}
	return img
}

func framed(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if x < 8 || x >= w-8 || y < 8 || y >= h-8 {
				c = color.RGBA{0, 0, 0, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func writeBMP(path string, img image.Image) {
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()
	if err := bmp.Encode(f, img); err != nil {
		fmt.Fprintf(os.Stderr, "encode %s: %v\n", path, err)
		os.Exit(1)
	}
}
