package config

import (
	"strings"
	"testing"
	"time"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.UsesSPI() {
		t.Error("default output should be a preview file")
	}
	if c.Rotation != 180 {
		t.Errorf("default rotation: %d", c.Rotation)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"rotation", func(c *Config) { c.Rotation = 45 }, "rotation 45"},
		{"panel", func(c *Config) { c.Panel = "epd2in13" }, "unknown panel"},
		{"photo dir", func(c *Config) { c.PhotoDir = "" }, "photo dir"},
		{"upload", func(c *Config) { c.MaxUploadBytes = 10 }, "max upload"},
		{"lock", func(c *Config) { c.LockTimeout = 0 }, "lock timeout"},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	err := c.ApplyEnv(env(map[string]string{
		"PHOTOFRAME_PHOTO_DIR":     "/sdcard/photos",
		"PHOTOFRAME_OUTPUT":        "SPI",
		"PHOTOFRAME_ROTATION":      "90",
		"PHOTOFRAME_QUIET_WINDOW":  "250ms",
		"PHOTOFRAME_ALLOW_UPSCALE": "true",
		"PHOTOFRAME_LISTEN":        ":9000",
	}), map[string]bool{"LISTEN": true})
	if err != nil {
		t.Fatal(err)
	}
	if c.PhotoDir != "/sdcard/photos" {
		t.Errorf("photo dir: %q", c.PhotoDir)
	}
	if !c.UsesSPI() {
		t.Error("output should select the SPI panel")
	}
	if c.Rotation != 90 || c.QuietWindow != 250*time.Millisecond || !c.AllowUpscale {
		t.Errorf("parsed values: %+v", c)
	}
	if c.Listen != ":8080" {
		t.Errorf("explicit flag overridden: %q", c.Listen)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	c := Default()
	err := c.ApplyEnv(env(map[string]string{
		"PHOTOFRAME_ROTATION":     "ninety",
		"PHOTOFRAME_LOCK_TIMEOUT": "2",
	}), nil)
	if err == nil {
		t.Fatal("expected parse errors")
	}
	for _, key := range []string{"PHOTOFRAME_ROTATION", "PHOTOFRAME_LOCK_TIMEOUT"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
	if c.Rotation != 180 {
		t.Errorf("rotation changed to %d", c.Rotation)
	}
}
