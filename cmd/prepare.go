package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/photoframe/internal/pipeline"
	"github.com/AnyUserName/photoframe/internal/profile"
)

var (
	prepareWorkers   int
	prepareDither    bool
	prepareLetterbox bool
	prepareTolerance float64
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <input_dir>",
	Short: "Convert images into frame-ready variants and add them to the library",
	Long: `Scans input directory for images (png, jpg, jpeg, gif, bmp, tiff, webp),
writes a landscape and a portrait BMP variant for each one sized for the
panel (a single square variant for near-square images) and registers them
in the photo library.

Output filenames carry the orientation tag: <id>_L_r0.bmp, <id>_P_r90.bmp,
<id>_S_r0.bmp. Byte-identical sources are prepared once.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().IntVarP(&prepareWorkers, "workers", "w", 0, "parallel workers (0 = NumCPU)")
	prepareCmd.Flags().BoolVar(&prepareDither, "dither", true, "dither variants onto the panel inks")
	prepareCmd.Flags().BoolVar(&prepareLetterbox, "letterbox", false, "fit inside the variant on white instead of cropping")
	prepareCmd.Flags().Float64Var(&prepareTolerance, "square-tolerance", pipeline.DefaultSquareTolerance, "aspect distance from 1:1 stored as square")
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(_ *cobra.Command, args []string) error {
	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(cfg.PhotoDir)
	if err != nil {
		return fmt.Errorf("resolve photo dir: %w", err)
	}
	prof, err := profile.Get(cfg.Panel)
	if err != nil {
		return err
	}

	logVerbose("input:   %s", absInput)
	logVerbose("output:  %s", absOutput)
	logVerbose("profile: %s (%dx%d)", prof.Name, prof.Width, prof.Height)

	p := pipeline.New(pipeline.Config{
		InputDir:        absInput,
		OutputDir:       absOutput,
		Profile:         prof,
		Workers:         prepareWorkers,
		Dither:          prepareDither,
		Letterbox:       prepareLetterbox,
		SquareTolerance: prepareTolerance,
	})
	rep, err := p.Run()
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	printPrepareReport(rep, prof)
	return nil
}

func printPrepareReport(r *pipeline.Report, prof profile.Profile) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║            photoframe prepare complete           ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	fmt.Printf("  Sources:     %d\n", r.Sources)
	fmt.Printf("  Photos:      %d\n", len(r.Prepared))
	fmt.Printf("  Variants:    %d\n", r.Variants())
	if len(r.Duplicates) > 0 {
		fmt.Printf("  Duplicates:  %d skipped\n", len(r.Duplicates))
	}
	fmt.Printf("  Input size:  %s\n", formatBytes(r.InputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(r.OutputBytes))
	fmt.Printf("  Panel:       %s %dx%d\n", prof.Name, prof.Width, prof.Height)
	fmt.Printf("  Workers:     %d\n", r.Workers)
	fmt.Printf("  Time:        %s\n", r.Elapsed.Round(time.Millisecond))
	fmt.Println()

	if len(r.Prepared) > 0 {
		items := append([]pipeline.Prepared(nil), r.Prepared...)
		sort.SliceStable(items, func(i, j int) bool {
			return variantBytes(items[i]) > variantBytes(items[j])
		})
		n := len(items)
		if n > 10 {
			n = 10
		}
		fmt.Printf("  Top %d heaviest:\n", n)
		for _, it := range items[:n] {
			taken := "undated"
			if !it.Taken.IsZero() {
				taken = it.Taken.Format("2006-01-02")
			}
			fmt.Printf("    %-40s %-10s %d variant(s) %8s\n",
				truncKey(it.ID, 40), taken, len(it.Variants), formatBytes(variantBytes(it)))
		}
		fmt.Println()
	}

	if len(r.Failed) > 0 {
		fmt.Printf("  Failed (%d):\n", len(r.Failed))
		for _, err := range r.Failed {
			fmt.Printf("    ⚠ %s\n", err)
		}
		fmt.Println()
	}
}

func variantBytes(p pipeline.Prepared) int64 {
	var n int64
	for _, v := range p.Variants {
		n += v.Size
	}
	return n
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
