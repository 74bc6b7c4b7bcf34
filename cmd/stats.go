package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/photoframe/internal/frame"
	"github.com/AnyUserName/photoframe/internal/kvstore"
	"github.com/AnyUserName/photoframe/internal/library"
)

var statsCmd = &cobra.Command{
	Use:   "stats [photo_dir]",
	Short: "Display statistics for a photo library",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	dir := cfg.PhotoDir
	if len(args) == 1 {
		dir = args[0]
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}

	// Read only: a missing document is shown as the scan would rebuild it.
	store := library.NewStore(dir)
	source := "library.json"
	var cat *library.Catalog
	if d, err := library.ReadJSON(store.Path()); err == nil {
		cat = library.FromDocument(d)
	} else {
		entries, err := library.ScanDir(dir)
		if err != nil {
			return fmt.Errorf("scan %s: %w", dir, err)
		}
		cat = library.FromScan(entries)
		source = "directory scan (no usable library.json)"
	}

	printStats(library.ComputeStats(cat, dir), source)
	printState()
	return nil
}

func printStats(s library.Stats, source string) {
	fmt.Println()
	fmt.Printf("  Source:           %s\n", source)
	fmt.Printf("  Photos:           %d\n", s.Photos)
	fmt.Printf("    landscape:      %d\n", s.Landscape)
	fmt.Printf("    portrait:       %d\n", s.Portrait)
	fmt.Printf("    square:         %d\n", s.Square)
	fmt.Printf("    both variants:  %d\n", s.BothVariants)
	fmt.Printf("  Variant files:    %d\n", s.Files)
	fmt.Printf("  Total size:       %s\n", formatBytes(s.TotalBytes))
	if s.LargestID != "" {
		fmt.Printf("  Largest photo:    %s (%s)\n", s.LargestID, formatBytes(s.LargestBytes))
	}

	var warnings []string
	if s.MissingFiles > 0 {
		warnings = append(warnings, fmt.Sprintf("%d referenced file(s) missing", s.MissingFiles))
	}
	for _, name := range s.Orphans {
		warnings = append(warnings, fmt.Sprintf("orphan file %q not in library", name))
	}
	if len(warnings) > 0 {
		fmt.Println()
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
	}
	fmt.Println()
}

// printState shows the persisted frame state when the state file exists.
func printState() {
	if _, err := os.Stat(cfg.StateFile); err != nil {
		return
	}
	kv, err := kvstore.OpenSQLite(cfg.StateFile)
	if err != nil {
		logVerbose("state: %v", err)
		return
	}
	defer kv.Close()

	saved, err := frame.ReadSaved(kv)
	if err != nil {
		logVerbose("state: %v", err)
		return
	}
	fmt.Printf("  State:            %s\n", cfg.StateFile)
	if saved.Rotation >= 0 {
		fmt.Printf("    rotation:       %d\n", saved.Rotation)
	}
	if saved.CurrentID != "" {
		fmt.Printf("    current photo:  %s\n", saved.CurrentID)
	}
	if saved.CurrentImage != "" {
		fmt.Printf("    last image:     %s\n", saved.CurrentImage)
	}
	fmt.Printf("    slideshow:      %t (every %ds)\n", saved.Slideshow.Enabled, saved.Slideshow.IntervalS)
	fmt.Println()
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
