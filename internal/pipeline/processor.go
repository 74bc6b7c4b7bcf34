package pipeline

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/AnyUserName/photoframe/internal/encoder"
	"github.com/AnyUserName/photoframe/internal/hasher"
	"github.com/AnyUserName/photoframe/internal/library"
	"github.com/AnyUserName/photoframe/internal/palette"
)

// Variant is one written variant file.
type Variant struct {
	Kind     library.Kind
	Filename string
	Width    int
	Height   int
	Size     int64
}

// processResult holds the result of preparing a single source image.
type processResult struct {
	src      Source
	id       string
	taken    time.Time
	variants []Variant
	err      error
}

// processImage decodes one source, honoring its EXIF orientation, and writes
// the variants its shape calls for.
func processImage(src Source, id string, cfg Config, enc encoder.Encoder) processResult {
	result := processResult{src: src, id: id}

	img, err := imaging.Open(src.AbsPath, imaging.AutoOrientation(true))
	if err != nil {
		result.err = fmt.Errorf("decode %s: %w", src.RelPath, err)
		return result
	}
	result.taken = captureTime(src)

	b := img.Bounds()
	for _, kind := range variantKinds(b.Dx(), b.Dy(), cfg.SquareTolerance) {
		w, h := cfg.Profile.VariantSize(kind.String())
		out := fitVariant(img, w, h, cfg.Letterbox)
		if cfg.Dither {
			out = ditherToInks(out)
		}

		data, err := enc.Encode(out, 0)
		if err != nil {
			result.err = fmt.Errorf("encode %s as %s: %w", src.RelPath, kind, err)
			return result
		}

		name := library.VariantFilename(id, kind)
		if err := writeFile(filepath.Join(cfg.OutputDir, name), data); err != nil {
			result.err = fmt.Errorf("write %s: %w", name, err)
			return result
		}
		result.variants = append(result.variants, Variant{
			Kind:     kind,
			Filename: name,
			Width:    w,
			Height:   h,
			Size:     int64(len(data)),
		})
	}
	return result
}

// variantKinds picks square for near-square sources and both orientations
// otherwise.
func variantKinds(w, h int, tolerance float64) []library.Kind {
	if w <= 0 || h <= 0 {
		return nil
	}
	ratio := float64(w) / float64(h)
	if ratio >= 1-tolerance && ratio <= 1+tolerance {
		return []library.Kind{library.Square}
	}
	return []library.Kind{library.Landscape, library.Portrait}
}

// fitVariant crops to fill w x h, or with letterbox fits inside it on white.
func fitVariant(img image.Image, w, h int, letterbox bool) image.Image {
	if !letterbox {
		return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
	}
	fitted := imaging.Fit(img, w, h, imaging.Lanczos)
	bg := imaging.New(w, h, color.White)
	return imaging.PasteCenter(bg, fitted)
}

// ditherToInks maps img onto the panel inks so the frame shows exactly what
// was prepared.
func ditherToInks(img image.Image) *image.RGBA {
	src := imaging.Clone(img)
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	d := palette.NewDitherer(b.Dx())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := src.PixOffset(x, y)
			idx := d.Quantize(x, src.Pix[i], src.Pix[i+1], src.Pix[i+2])
			dst.SetRGBA(x, y, palette.Color(idx))
		}
		d.NextRow()
	}
	return dst
}

// captureTime is the EXIF capture time, or the zero time when the file has
// none.
func captureTime(src Source) time.Time {
	f, err := os.Open(src.AbsPath)
	if err != nil {
		return time.Time{}
	}
	defer f.Close()

	x, err := imagemeta.Decode(f)
	if err != nil {
		log.Debug().Str("file", src.RelPath).Err(err).Msg("no exif metadata")
		return time.Time{}
	}
	if t := x.DateTimeOriginal(); !t.IsZero() {
		return t
	}
	if t := x.CreateDate(); !t.IsZero() {
		return t
	}
	return x.ModifyDate()
}

// sourceHash fingerprints a source file's bytes for duplicate detection.
func sourceHash(src Source) (hasher.Sum, error) {
	return hasher.File(src.AbsPath)
}

// writeFile writes data next to path and renames it into place.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".prepare-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
