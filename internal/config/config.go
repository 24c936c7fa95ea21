// Package config loads and saves run configurations. A config couples a
// system parameter set with the run policy applied to it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/exolab/exomoon/internal/params"
)

const (
	DefaultYears        = 10.0
	DefaultEscapeFactor = 1.0
)

// Config is one fully-specified run request.
type Config struct {
	System params.System `yaml:"system"`

	// Mode is "orbit" (one planetary period) or "years".
	Mode         string  `yaml:"mode"`
	Years        float64 `yaml:"years"`
	EscapeFactor float64 `yaml:"escape_factor"`
}

// Default returns the reference system with a ten-year stability run.
func Default() *Config {
	return &Config{
		System:       params.Default(),
		Mode:         "orbit",
		Years:        DefaultYears,
		EscapeFactor: DefaultEscapeFactor,
	}
}

// Load reads a YAML config, filling unset fields from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
