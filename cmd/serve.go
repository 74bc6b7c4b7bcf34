package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/photoframe/internal/encoder"
	"github.com/AnyUserName/photoframe/internal/frame"
	"github.com/AnyUserName/photoframe/internal/kvstore"
	"github.com/AnyUserName/photoframe/internal/panel"
	"github.com/AnyUserName/photoframe/internal/profile"
	"github.com/AnyUserName/photoframe/internal/render"
	"github.com/AnyUserName/photoframe/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the frame: HTTP API, panel rendering and slideshow",
	Long: `Loads the photo library and the persisted state, draws the current photo
and serves the HTTP API until interrupted.

The panel is the SPI e-paper display when --output is "spi"; any other value
is a preview image path (.png, .bmp or .jpg) rewritten on every refresh.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&cfg.FallbackDir, "fallback-dir", cfg.FallbackDir, "directory with fallback_landscape.bmp / fallback_portrait.bmp")
	f.StringVar(&cfg.StateFile, "state-file", cfg.StateFile, "sqlite file with the persisted state")
	f.StringVar(&cfg.Listen, "listen", cfg.Listen, "HTTP listen address")
	f.StringVar(&cfg.WebDir, "web-dir", cfg.WebDir, "static web UI directory served at /")
	f.StringVar(&cfg.Output, "output", cfg.Output, `"spi" or a preview image path`)
	f.StringVar(&cfg.SPI.Bus, "spi-bus", cfg.SPI.Bus, "SPI port name (empty: first port)")
	f.StringVar(&cfg.SPI.DC, "spi-dc", cfg.SPI.DC, "data/command GPIO")
	f.StringVar(&cfg.SPI.RST, "spi-rst", cfg.SPI.RST, "reset GPIO")
	f.StringVar(&cfg.SPI.Busy, "spi-busy", cfg.SPI.Busy, "busy GPIO")
	f.IntVar(&cfg.Rotation, "rotation", cfg.Rotation, "mounting rotation until one is saved (0, 90, 180, 270)")
	f.BoolVar(&cfg.AllowUpscale, "allow-upscale", cfg.AllowUpscale, "grow small photos to fill the panel")
	f.DurationVar(&cfg.LockTimeout, "lock-timeout", cfg.LockTimeout, "library lock wait before answering busy")
	f.Int64Var(&cfg.MaxUploadBytes, "max-upload-bytes", cfg.MaxUploadBytes, "largest accepted upload")
	f.DurationVar(&cfg.QuietWindow, "quiet-window", cfg.QuietWindow, "network silence required before a refresh")
	f.DurationVar(&cfg.QuietMaxWait, "quiet-max-wait", cfg.QuietMaxWait, "longest wait for network silence")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	prof, err := profile.Get(cfg.Panel)
	if err != nil {
		return err
	}
	logVerbose("photos:   %s", cfg.PhotoDir)
	logVerbose("fallback: %s", cfg.FallbackDir)
	logVerbose("panel:    %s %dx%d -> %s", prof.Name, prof.Width, prof.Height, cfg.Output)

	if err := os.MkdirAll(filepath.Dir(cfg.StateFile), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	kv, err := kvstore.OpenSQLite(cfg.StateFile)
	if err != nil {
		return err
	}
	defer kv.Close()

	pnl, err := openPanel(prof)
	if err != nil {
		return err
	}
	defer func() {
		if err := pnl.Close(); err != nil {
			log.Warn().Err(err).Msg("panel close")
		}
	}()

	ctl := frame.New(frame.Options{
		PhotoDir:        cfg.PhotoDir,
		FallbackDir:     cfg.FallbackDir,
		DefaultRotation: cfg.Rotation,
		LockTimeout:     cfg.LockTimeout,
		MaxUploadBytes:  cfg.MaxUploadBytes,
	}, kv)

	quiet := render.NewQuiet(cfg.QuietWindow, cfg.QuietMaxWait)
	coord := render.New(ctl, pnl, render.Options{
		AllowUpscale: cfg.AllowUpscale || prof.Upscale,
		Quiet:        quiet,
	})
	ctl.SetNotifier(coord)
	if err := ctl.Init(); err != nil {
		return fmt.Errorf("init frame: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		coord.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		ctl.RunSlideshow(ctx)
	}()

	srv := server.New(ctl, server.Options{
		WebDir:  cfg.WebDir,
		Quiet:   quiet,
		Render:  coord,
		Profile: prof,
	})
	fmt.Printf("\n  photoframe: http://localhost%s\n\n", cfg.Listen)
	err = srv.ListenAndServe(ctx, cfg.Listen)
	stop()
	wg.Wait()
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	log.Info().Msg("stopped")
	return nil
}

func openPanel(prof profile.Profile) (panel.Panel, error) {
	if cfg.UsesSPI() {
		return panel.OpenSPI(panel.SPIConfig{
			Bus:  cfg.SPI.Bus,
			DC:   cfg.SPI.DC,
			RST:  cfg.SPI.RST,
			Busy: cfg.SPI.Busy,
			W:    prof.Width,
			H:    prof.Height,
		})
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Output), 0o755); err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}
	return panel.NewFile(cfg.Output, prof.Width, prof.Height, encoder.NewRegistry())
}
