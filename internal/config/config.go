// Package config provides the configuration schema and loader for vowelscore.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Environment variables consulted by [ApplyEnv] and the CLI.
const (
	EnvConfig    = "VOWELSCORE_CONFIG"
	EnvLogLevel  = "VOWELSCORE_LOG_LEVEL"
	EnvInventory = "VOWELSCORE_INVENTORY"
)

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	// Inventory is the path of a YAML phoneme inventory that replaces the
	// embedded default. Empty selects the default.
	Inventory string `yaml:"inventory"`

	Assessment AssessmentConfig `yaml:"assessment"`
	Batch      BatchConfig      `yaml:"batch"`
}

// AssessmentConfig tunes the normalizer and scorer.
type AssessmentConfig struct {
	// FocusAreaLimit is how many focus areas are reported. Zero selects the
	// default of 3.
	FocusAreaLimit int `yaml:"focus_area_limit"`

	// MergeSplitDiphthongs rejoins diphthongs that a recogniser emitted as
	// two tokens. Nil means enabled.
	MergeSplitDiphthongs *bool `yaml:"merge_split_diphthongs"`

	// StripMarkers overrides the inventory's stripped-marker set. Each entry
	// must be a single rune. Nil keeps the inventory's set.
	StripMarkers []string `yaml:"strip_markers"`
}

// MergeDiphthongs reports whether split diphthongs should be merged.
func (a AssessmentConfig) MergeDiphthongs() bool {
	return a.MergeSplitDiphthongs == nil || *a.MergeSplitDiphthongs
}

// BatchConfig configures the batch command.
type BatchConfig struct {
	// Workers is the number of assessments run in parallel. Zero selects
	// the number of CPUs.
	Workers int `yaml:"workers"`

	// MetricsFile, when set, receives a Prometheus textfile with the run's
	// metrics after the batch completes.
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{LogLevel: LogInfo}
}
