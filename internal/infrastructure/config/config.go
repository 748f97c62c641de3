// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
)

const (
	// DefaultConfigDir is the directory name for paper-trail configuration.
	DefaultConfigDir = ".papertrail"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default version database file name.
	DefaultDatabaseFile = "versions.db"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite   SQLiteConfig          `yaml:"sqlite,omitempty"`
	Tracking map[string]PolicySpec `yaml:"tracking,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite version store.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	Path string `yaml:"path,omitempty"`
}

// PolicySpec is the static portion of a tracking policy, keyed by item type.
// Predicate-guarded rules, enable conditions, and computed metadata cannot be
// expressed in YAML; applications register those in code on top of the loaded
// spec.
type PolicySpec struct {
	Ignore            []string       `yaml:"ignore,omitempty"`
	Skip              []string       `yaml:"skip,omitempty"`
	Only              []string       `yaml:"only,omitempty"`
	TimestampColumns  []string       `yaml:"timestamp_columns,omitempty"`
	TrackAssociations bool           `yaml:"track_associations,omitempty"`
	RecordDiffs       bool           `yaml:"record_diffs,omitempty"`
	Meta              map[string]any `yaml:"meta,omitempty"`
}

// Policy converts the spec into a tracking policy.
func (s PolicySpec) Policy() entities.Policy {
	pol := entities.Policy{
		TimestampColumns:  s.TimestampColumns,
		TrackAssociations: s.TrackAssociations,
		RecordDiffs:       s.RecordDiffs,
	}
	for _, name := range s.Ignore {
		pol.Ignore = append(pol.Ignore, entities.Attr(name))
	}
	for _, name := range s.Skip {
		pol.Skip = append(pol.Skip, entities.Attr(name))
	}
	for _, name := range s.Only {
		pol.Only = append(pol.Only, entities.Attr(name))
	}

	keys := make([]string, 0, len(s.Meta))
	for key := range s.Meta {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		pol.Meta = append(pol.Meta, entities.MetadataField{Key: key, Value: s.Meta[key]})
	}
	return pol
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		SQLite: SQLiteConfig{
			Path: filepath.Join(DefaultConfigDir, DefaultDatabaseFile),
		},
	}
}

// ConfigFilePath returns the config file path under basePath.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Load loads configuration from the .papertrail directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'papertrail init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("PAPERTRAIL_DB_PATH"); path != "" {
		c.SQLite.Path = path
	}
}
