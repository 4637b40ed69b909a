// Package config loads the YAML service configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file omits a field or does not exist.
const (
	DefaultListen         = ":8090"
	DefaultDataDir        = "./data"
	DefaultMaxOccurrences = 365
)

// Config is the top-level service configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// DataDir holds the SQLite database file.
	DataDir string `yaml:"data_dir"`

	// Timezone is the IANA zone the practitioner's wall clock runs in,
	// e.g. "America/Sao_Paulo". Empty means the host's local zone.
	Timezone string `yaml:"timezone"`

	// Recurrence groups the weekly-expansion settings.
	Recurrence RecurrenceConfig `yaml:"recurrence"`
}

// RecurrenceConfig controls weekly series expansion.
type RecurrenceConfig struct {
	// MaxOccurrences caps how many events one series may generate.
	MaxOccurrences int `yaml:"max_occurrences"`
}

// Load reads the config file at path. A missing file yields the defaults; a
// malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run; defaults apply.
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.Recurrence.MaxOccurrences <= 0 {
		c.Recurrence.MaxOccurrences = DefaultMaxOccurrences
	}
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("resolving timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
