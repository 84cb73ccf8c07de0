package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/kleisli/pkg/kleisli/ingest"
	"github.com/cognicore/kleisli/pkg/kleisli/internalerr"
)

// Store drivers understood by the loader.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the top-level YAML configuration
type Config struct {
	Notes        Notes     `yaml:"notes"`
	Stoplist     []string  `yaml:"stoplist"`
	StoplistPath string    `yaml:"stoplist_path"`
	Samples      []string  `yaml:"samples"`
	Store        StoreConf `yaml:"store"`
	Log          LogConf   `yaml:"log"`
}

// Notes overrides the labels emitted by each pipeline stage
type Notes struct {
	Normalize string `yaml:"normalize"`
	Tokenize  string `yaml:"tokenize"`
	Filter    string `yaml:"filter"`
}

// StoreConf selects where runs are journaled
type StoreConf struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// LogConf configures structured logging
type LogConf struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	notes := ingest.DefaultNotes()
	return &Config{
		Notes: Notes{
			Normalize: notes.Normalize,
			Tokenize:  notes.Tokenize,
			Filter:    notes.Filter,
		},
		Samples: []string{"hello world"},
		Store:   StoreConf{Driver: DriverMemory},
		Log:     LogConf{Level: "info", Format: "text"},
	}
}

// LoadConfig loads a configuration from a YAML file. Fields missing from
// the file keep their Default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for unusable values
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("%w: store.path is required for the sqlite driver", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", internalerr.ErrInvalidConfig, c.Store.Driver)
	}

	if c.Notes.Normalize == "" || c.Notes.Tokenize == "" {
		return fmt.Errorf("%w: stage notes must not be empty", internalerr.ErrInvalidConfig)
	}

	return nil
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}
