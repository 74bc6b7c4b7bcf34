// Package config holds the frame's runtime settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AnyUserName/photoframe/internal/geom"
	"github.com/AnyUserName/photoframe/internal/profile"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PHOTOFRAME_"

// Config is every tunable of the serve command.
type Config struct {
	PhotoDir    string
	FallbackDir string
	StateFile   string // sqlite database with the persisted state
	Listen      string
	WebDir      string // optional static UI served at /

	Panel  string // profile name
	Output string // "spi" or a preview image path (.bmp, .png, .jpg)
	SPI    SPI

	Rotation       int // used until a rotation is persisted
	AllowUpscale   bool
	LockTimeout    time.Duration
	MaxUploadBytes int64
	QuietWindow    time.Duration
	QuietMaxWait   time.Duration

	LogLevel  string
	LogPretty bool
}

// SPI names the bus and GPIO lines of a real panel.
type SPI struct {
	Bus  string
	DC   string
	RST  string
	Busy string
}

// Default returns the settings of a frame with an SD card mounted at ./data.
func Default() Config {
	return Config{
		PhotoDir:       filepath.Join("data", "photos"),
		FallbackDir:    filepath.Join("data", "fallback"),
		StateFile:      filepath.Join("data", "state.db"),
		Listen:         ":8080",
		Panel:          profile.Default,
		Output:         filepath.Join("data", "panel.png"),
		SPI:            SPI{DC: "GPIO25", RST: "GPIO17", Busy: "GPIO24"},
		Rotation:       180,
		LockTimeout:    2 * time.Second,
		MaxUploadBytes: 4 << 20,
		QuietWindow:    1500 * time.Millisecond,
		QuietMaxWait:   15 * time.Second,
		LogLevel:       "info",
	}
}

// UsesSPI reports whether the output is the real panel.
func (c *Config) UsesSPI() bool {
	return strings.EqualFold(c.Output, "spi")
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	var errs []error
	if c.PhotoDir == "" {
		errs = append(errs, errors.New("photo dir is empty"))
	}
	if c.StateFile == "" {
		errs = append(errs, errors.New("state file is empty"))
	}
	if _, err := profile.Get(c.Panel); err != nil {
		errs = append(errs, err)
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output is empty"))
	}
	if !geom.ValidRotation(c.Rotation) {
		errs = append(errs, fmt.Errorf("rotation %d is not one of 0, 90, 180, 270", c.Rotation))
	}
	if c.LockTimeout <= 0 {
		errs = append(errs, fmt.Errorf("lock timeout %s must be positive", c.LockTimeout))
	}
	if c.MaxUploadBytes < 64 {
		errs = append(errs, fmt.Errorf("max upload size %d is too small", c.MaxUploadBytes))
	}
	if c.QuietWindow < 0 || c.QuietMaxWait < 0 {
		errs = append(errs, errors.New("quiet durations must not be negative"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ApplyEnv overlays PHOTOFRAME_* variables onto c. Fields whose name is in
// skip (set explicitly on the command line) are left alone. Keys are the
// variable names without the prefix, e.g. PHOTO_DIR.
func (c *Config) ApplyEnv(lookup func(string) (string, bool), skip map[string]bool) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && !skip[key] {
			*dst = v
		}
	}
	num := func(key string, set func(string) error) {
		if v, ok := lookup(EnvPrefix + key); ok && !skip[key] {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			}
		}
	}
	dur := func(key string, dst *time.Duration) {
		num(key, func(v string) error {
			d, err := time.ParseDuration(v)
			if err == nil {
				*dst = d
			}
			return err
		})
	}
	boolean := func(key string, dst *bool) {
		num(key, func(v string) error {
			b, err := strconv.ParseBool(v)
			if err == nil {
				*dst = b
			}
			return err
		})
	}

	str("PHOTO_DIR", &c.PhotoDir)
	str("FALLBACK_DIR", &c.FallbackDir)
	str("STATE_FILE", &c.StateFile)
	str("LISTEN", &c.Listen)
	str("WEB_DIR", &c.WebDir)
	str("PANEL", &c.Panel)
	str("OUTPUT", &c.Output)
	str("SPI_BUS", &c.SPI.Bus)
	str("SPI_DC", &c.SPI.DC)
	str("SPI_RST", &c.SPI.RST)
	str("SPI_BUSY", &c.SPI.Busy)
	str("LOG_LEVEL", &c.LogLevel)
	num("ROTATION", func(v string) error {
		n, err := strconv.Atoi(v)
		if err == nil {
			c.Rotation = n
		}
		return err
	})
	num("MAX_UPLOAD_BYTES", func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			c.MaxUploadBytes = n
		}
		return err
	})
	dur("LOCK_TIMEOUT", &c.LockTimeout)
	dur("QUIET_WINDOW", &c.QuietWindow)
	dur("QUIET_MAX_WAIT", &c.QuietMaxWait)
	boolean("ALLOW_UPSCALE", &c.AllowUpscale)
	boolean("LOG_PRETTY", &c.LogPretty)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
