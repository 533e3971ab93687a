package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// maxFocusAreaLimit caps focus_area_limit; there are fewer vowel classes
// than this in any English inventory.
const maxFocusAreaLimit = 32

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Fields absent from the document keep their [Default] values. An empty
// document is the default config.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from environment variables read through getenv.
// Empty variables are ignored. The result is re-validated.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = LogLevel(v)
	}
	if v := getenv(EnvInventory); v != "" {
		cfg.Inventory = v
	}
	return Validate(cfg)
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
// Validate is pure; see [Warnings] for settings worth a log line.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	a := cfg.Assessment
	if a.FocusAreaLimit < 0 || a.FocusAreaLimit > maxFocusAreaLimit {
		errs = append(errs, fmt.Errorf("assessment.focus_area_limit %d is out of range [0, %d]", a.FocusAreaLimit, maxFocusAreaLimit))
	}
	for i, m := range a.StripMarkers {
		if utf8.RuneCountInString(m) != 1 {
			errs = append(errs, fmt.Errorf("assessment.strip_markers[%d] %q must be a single rune", i, m))
		}
	}
	if cfg.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers %d must not be negative", cfg.Batch.Workers))
	}

	return errors.Join(errs...)
}

// Warnings returns the questionable but valid settings in cfg. Unlike
// [Validate] it never fails and has no side effects, so callers log the
// result once after the final config is resolved.
func Warnings(cfg *Config) []string {
	var warns []string
	if a := cfg.Assessment; a.StripMarkers != nil && len(a.StripMarkers) == 0 {
		warns = append(warns, "assessment.strip_markers is empty; stress and length marks will be kept and may split vowels")
	}
	if n := runtime.NumCPU() * 4; cfg.Batch.Workers > n {
		warns = append(warns, fmt.Sprintf("batch.workers %d is far above the CPU count %d; assessments are CPU-bound", cfg.Batch.Workers, runtime.NumCPU()))
	}
	return warns
}
