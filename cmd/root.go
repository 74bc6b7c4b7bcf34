package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/AnyUserName/photoframe/internal/config"
	"github.com/AnyUserName/photoframe/internal/logging"
)

var (
	version = "0.1.0"
	verbose bool
	cfg     = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "photoframe",
	Short: "Six-color e-paper photo frame",
	Long: `photoframe keeps a library of photos on a directory, shows the current
one on a six-color e-paper panel and serves the frame's HTTP API.

Every photo may be stored as a landscape and a portrait variant; the frame
shows the one that matches how it is mounted. Settings come from flags and
PHOTOFRAME_* environment variables; flags win.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	pf.StringVar(&cfg.PhotoDir, "photo-dir", cfg.PhotoDir, "photo library directory")
	pf.StringVar(&cfg.Panel, "panel", cfg.Panel, "panel profile")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	pf.BoolVar(&cfg.LogPretty, "log-pretty", true, "human-readable log output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"photoframe %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// setup overlays the environment onto the flags not given explicitly and
// configures logging.
func setup(cmd *cobra.Command, _ []string) error {
	skip := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		skip[envKey(f.Name)] = true
	})
	if err := cfg.ApplyEnv(nil, skip); err != nil {
		return err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	logging.Init(cfg.LogLevel, cfg.LogPretty)
	return nil
}

// envKey maps a flag name to its environment key: photo-dir -> PHOTO_DIR.
func envKey(flag string) string {
	return strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// logVerbose logs a message at debug level, shown with --verbose.
func logVerbose(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}
