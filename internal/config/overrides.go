package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OverridesFile is the per-configuration override file name, looked up
// in the configuration export root.
const OverridesFile = ".1cgraph.yaml"

// Overrides holds user-overridable scan and search settings.
type Overrides struct {
	Scanner ScannerOverrides `yaml:"scanner"`
	Search  SearchOverrides  `yaml:"search"`
}

// ScannerOverrides tunes the configuration walk.
type ScannerOverrides struct {
	// IgnoreDirs are directory names to skip during scanning. Added to,
	// not replacing, the built-in defaults.
	IgnoreDirs []string `yaml:"ignore_dirs"`
}

// SearchOverrides tunes search tool limits.
type SearchOverrides struct {
	DefaultLimit *int `yaml:"default_limit"`
	MaxLimit     *int `yaml:"max_limit"`
}

// DefaultOverrides returns the empty override set.
func DefaultOverrides() *Overrides {
	return &Overrides{}
}

// LoadOverrides reads the override file from the given directory.
// A missing or unreadable file, or invalid YAML, yields defaults.
func LoadOverrides(dir string) *Overrides {
	o := DefaultOverrides()

	data, err := os.ReadFile(filepath.Join(dir, OverridesFile))
	if err != nil {
		return o
	}
	if err := yaml.Unmarshal(data, o); err != nil {
		return DefaultOverrides()
	}
	return o
}

// EffectiveDefaultLimit returns the overridden default search limit, or
// the given fallback when unset.
func (o *Overrides) EffectiveDefaultLimit(fallback int) int {
	if o.Search.DefaultLimit != nil {
		return *o.Search.DefaultLimit
	}
	return fallback
}

// EffectiveMaxLimit returns the overridden search limit cap, or the
// given fallback when unset.
func (o *Overrides) EffectiveMaxLimit(fallback int) int {
	if o.Search.MaxLimit != nil {
		return *o.Search.MaxLimit
	}
	return fallback
}

// ApplyOverrides folds the override file's search limits into the
// resolved configuration. Unset override fields leave the configured
// values untouched.
func (c *Config) ApplyOverrides(o *Overrides) {
	c.DefaultSearchLimit = o.EffectiveDefaultLimit(c.DefaultSearchLimit)
	c.MaxSearchLimit = o.EffectiveMaxLimit(c.MaxSearchLimit)
}
