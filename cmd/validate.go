package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/photoframe/internal/library"
)

var validateCmd = &cobra.Command{
	Use:   "validate [photo_dir]",
	Short: "Validate library.json and check referenced variant files exist",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	dir := cfg.PhotoDir
	if len(args) == 1 {
		dir = args[0]
	}

	errs, err := library.ValidateDir(dir)
	if err != nil {
		return err
	}

	if len(errs) == 0 {
		d, _ := library.ReadJSON(library.NewStore(dir).Path())
		st := library.ComputeStats(library.FromDocument(d), dir)
		fmt.Println("  ✓ Library is valid")
		fmt.Printf("  ✓ %d photos, %d variant files, all present\n", st.Photos, st.Files)
		return nil
	}

	fmt.Printf("  ✗ Library has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}
