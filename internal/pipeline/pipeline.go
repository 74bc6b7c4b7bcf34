// Package pipeline prepares arbitrary images as frame-ready variant BMPs
// and registers them in the photo library.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AnyUserName/photoframe/internal/encoder"
	"github.com/AnyUserName/photoframe/internal/hasher"
	"github.com/AnyUserName/photoframe/internal/library"
	"github.com/AnyUserName/photoframe/internal/profile"
)

// DefaultSquareTolerance is how far from 1:1 a source may be and still be
// stored as a single square variant.
const DefaultSquareTolerance = 0.05

// Config holds all parameters for a prepare run.
type Config struct {
	InputDir  string
	OutputDir string // the frame's photo directory
	Profile   profile.Profile
	Workers   int
	// Dither quantizes variants onto the panel inks before writing.
	Dither bool
	// Letterbox fits sources inside the variant on white instead of
	// cropping to fill it.
	Letterbox       bool
	SquareTolerance float64
}

// Report summarizes a run.
type Report struct {
	Sources     int
	Prepared    []Prepared
	Duplicates  []string // relative paths skipped as byte-identical to another source
	Failed      []error
	InputBytes  int64
	OutputBytes int64
	Workers     int
	Elapsed     time.Duration
}

// Prepared is one source and the variants written for it.
type Prepared struct {
	Source   string
	ID       string
	Taken    time.Time
	Variants []Variant
}

// Variants counts the written variant files.
func (r *Report) Variants() int {
	n := 0
	for _, p := range r.Prepared {
		n += len(p.Variants)
	}
	return n
}

// Pipeline orchestrates variant preparation.
type Pipeline struct {
	cfg Config
	enc encoder.Encoder
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.SquareTolerance <= 0 {
		cfg.SquareTolerance = DefaultSquareTolerance
	}
	return &Pipeline{
		cfg: cfg,
		enc: encoder.NewRegistry().Get("bmp"),
	}
}

// Run prepares every image under the input directory, then adds the new
// photos to the library in capture order. Existing photos keep their place;
// a source whose id is already in the library replaces its variants.
func (p *Pipeline) Run() (*Report, error) {
	start := time.Now()
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	sources, err := ScanImages(p.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", p.cfg.InputDir)
	}
	log.Debug().Int("sources", len(sources)).Str("profile", p.cfg.Profile.Name).Msg("found images")

	store := library.NewStore(p.cfg.OutputDir)
	cat, src, err := store.Load()
	if err != nil {
		log.Warn().Err(err).Str("source", src.String()).Msg("library load failed, starting empty")
	}

	report := &Report{Sources: len(sources), Workers: p.cfg.Workers}
	sources, report.Duplicates = dedupe(sources)
	ids := assignIDs(sources)

	// Process images in parallel.
	results := make([]processResult, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = processImage(s, ids[idx], p.cfg, p.enc)
			if results[idx].err == nil {
				log.Debug().Str("source", s.RelPath).Str("id", ids[idx]).
					Int("variants", len(results[idx].variants)).Msg("prepared")
			}
		}(i, src)
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			report.Failed = append(report.Failed, r.err)
			log.Warn().Err(r.err).Msg("source skipped")
			continue
		}
		pr := Prepared{Source: r.src.RelPath, ID: r.id, Taken: r.taken, Variants: r.variants}
		report.Prepared = append(report.Prepared, pr)
		report.InputBytes += r.src.Size
		for _, v := range r.variants {
			report.OutputBytes += v.Size
		}
	}
	if len(report.Prepared) == 0 {
		return nil, fmt.Errorf("all %d images failed to process: %w", len(sources), errors.Join(report.Failed...))
	}

	sortByCapture(report.Prepared)
	if err := register(store, cat, report.Prepared); err != nil {
		return report, err
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

// dedupe drops sources whose bytes equal an earlier source.
func dedupe(sources []Source) ([]Source, []string) {
	seen := map[hasher.Sum]bool{}
	var kept []Source
	var dups []string
	for _, s := range sources {
		sum, err := sourceHash(s)
		if err != nil {
			kept = append(kept, s)
			continue
		}
		if seen[sum] {
			dups = append(dups, s.RelPath)
			continue
		}
		seen[sum] = true
		kept = append(kept, s)
	}
	return kept, dups
}

// assignIDs makes the ids unique within one run by suffixing -2, -3, ...
func assignIDs(sources []Source) []string {
	used := map[string]int{}
	ids := make([]string, len(sources))
	for i, s := range sources {
		id := s.ID
		used[id]++
		if n := used[id]; n > 1 {
			id = fmt.Sprintf("%s-%d", id, n)
		}
		ids[i] = id
	}
	return ids
}

// sortByCapture orders by capture time, undated sources last, then by id.
func sortByCapture(ps []Prepared) {
	sort.SliceStable(ps, func(i, j int) bool {
		ti, tj := ps[i].Taken, ps[j].Taken
		switch {
		case ti.IsZero() != tj.IsZero():
			return !ti.IsZero()
		case !ti.Equal(tj):
			return ti.Before(tj)
		}
		return ps[i].ID < ps[j].ID
	})
}

// register adds the prepared photos to cat and saves it. Photos already in
// the library keep their position and lose variant files they no longer
// have; new photos are appended in the given order.
func register(store *library.Store, cat *library.Catalog, prepared []Prepared) error {
	order := cat.Order()
	for _, p := range prepared {
		keep := map[string]bool{}
		for _, v := range p.Variants {
			keep[v.Filename] = true
		}
		if old, ok := cat.Remove(p.ID); ok {
			for _, name := range old.Files() {
				if keep[name] {
					continue
				}
				if err := os.Remove(store.FilePath(name)); err != nil && !os.IsNotExist(err) {
					log.Warn().Err(err).Str("file", name).Msg("stale variant not removed")
				}
			}
		}
		for _, v := range p.Variants {
			cat.SetVariant(p.ID, v.Kind, v.Filename)
		}
	}
	cat.Reorder(order)
	if err := store.Save(cat); err != nil {
		return fmt.Errorf("save library: %w", err)
	}
	return nil
}
