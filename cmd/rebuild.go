package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/photoframe/internal/library"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild [photo_dir]",
	Short: "Rewrite library.json from the variant files in the photo directory",
	Long: `Scans the photo directory for variant BMPs, groups them by photo id and
replaces library.json with the result. Photos are ordered by id.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(_ *cobra.Command, args []string) error {
	dir := cfg.PhotoDir
	if len(args) == 1 {
		dir = args[0]
	}
	store := library.NewStore(dir)
	cat, err := store.Rebuild()
	if cat == nil {
		return err
	}
	if err != nil {
		return fmt.Errorf("write library: %w", err)
	}

	st := library.ComputeStats(cat, dir)
	fmt.Println()
	fmt.Printf("  Photos:     %d\n", st.Photos)
	fmt.Printf("  Files:      %d (%s)\n", st.Files, formatBytes(st.TotalBytes))
	fmt.Printf("  Library:    %s\n", store.Path())
	fmt.Println()
	return nil
}
