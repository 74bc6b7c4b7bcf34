package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/photoframe/internal/encoder"
	"github.com/AnyUserName/photoframe/internal/frame"
	"github.com/AnyUserName/photoframe/internal/library"
	"github.com/AnyUserName/photoframe/internal/panel"
	"github.com/AnyUserName/photoframe/internal/profile"
	"github.com/AnyUserName/photoframe/internal/render"
)

var (
	renderOut           string
	renderRotation      int
	renderImageRotation int
	renderUpscale       bool
)

var renderCmd = &cobra.Command{
	Use:   "render <bmp>",
	Short: "Render one BMP the way the panel would show it",
	Long: `Draws a BMP through the same rotation, fit and dithering steps as the
frame and writes the panel image to a preview file.

Without --image-rotation the orientation tag is read from the file name
(_r0, _r90, _r180, _r270).`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "preview.png", "preview image (.png, .bmp or .jpg)")
	renderCmd.Flags().IntVar(&renderRotation, "rotation", 0, "frame rotation (0, 90, 180, 270)")
	renderCmd.Flags().IntVar(&renderImageRotation, "image-rotation", -1, "image orientation (-1 = from file name)")
	renderCmd.Flags().BoolVar(&renderUpscale, "upscale", false, "grow small images to fill the panel")
	rootCmd.AddCommand(renderCmd)
}

// staticSource displays one file.
type staticSource struct {
	d      frame.Display
	failed bool
}

func (s *staticSource) Display() frame.Display {
	if s.failed {
		return frame.Display{FrameRotation: s.d.FrameRotation}
	}
	return s.d
}

func (s *staticSource) DisplayFailed(string) { s.failed = true }

func runRender(_ *cobra.Command, args []string) error {
	src := args[0]
	prof, err := profile.Get(cfg.Panel)
	if err != nil {
		return err
	}
	switch renderRotation {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("rotation %d is not one of 0, 90, 180, 270", renderRotation)
	}
	imgRot := renderImageRotation
	if imgRot < 0 {
		imgRot = library.ParseRotation(filepath.Base(src), 0)
	}

	pnl, err := panel.NewFile(renderOut, prof.Width, prof.Height, encoder.NewRegistry())
	if err != nil {
		return err
	}
	defer pnl.Close()

	s := &staticSource{d: frame.Display{Path: src, ImageRotation: imgRot, FrameRotation: renderRotation}}
	coord := render.New(s, pnl, render.Options{AllowUpscale: renderUpscale || prof.Upscale})
	outcome, err := coord.Redraw(context.Background())
	if err != nil {
		return fmt.Errorf("render %s: %w", src, err)
	}
	st := coord.Stats()

	fmt.Println()
	fmt.Printf("  Source:    %s (r%d)\n", src, imgRot)
	fmt.Printf("  Panel:     %s %dx%d, rotation %d\n", prof.Name, prof.Width, prof.Height, renderRotation)
	fmt.Printf("  Outcome:   %s\n", outcome)
	fmt.Printf("  Frame:     %s\n", st.LastHash)
	fmt.Printf("  Preview:   %s\n", pnl.Path())
	fmt.Println()
	return nil
}
