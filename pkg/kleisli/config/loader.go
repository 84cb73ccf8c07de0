package config

import (
	"fmt"

	"github.com/cognicore/kleisli/pkg/kleisli/ingest"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	ConfigPath   string
	StoplistPath string // overrides Config.StoplistPath when set
}

// Components holds all loaded configuration components
type Components struct {
	Config   *Config
	Filter   *ingest.StopFilter
	Pipeline *ingest.Pipeline
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	cfg := Default()
	if l.ConfigPath != "" {
		loaded, err := LoadConfig(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	return Build(cfg, l.StoplistPath)
}

// Build constructs components from an already loaded configuration.
func Build(cfg *Config, stoplistPath string) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	terms := append([]string(nil), cfg.Stoplist...)

	path := cfg.StoplistPath
	if stoplistPath != "" {
		path = stoplistPath
	}
	if path != "" {
		stoplist, err := LoadStoplist(path)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		terms = append(terms, stoplist.Terms...)
	}

	filter := ingest.NewStopFilter(terms)
	notes := ingest.Notes{
		Normalize: cfg.Notes.Normalize,
		Tokenize:  cfg.Notes.Tokenize,
		Filter:    cfg.Notes.Filter,
	}

	return &Components{
		Config:   cfg,
		Filter:   filter,
		Pipeline: ingest.NewPipeline(notes, filter),
	}, nil
}
