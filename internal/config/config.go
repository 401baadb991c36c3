// Package config loads project configuration from asyncdb.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ProjectConfig is the on-disk configuration for the asyncdb CLI.
// Target may reference environment variables with ${VAR} syntax; Load
// expands them so secrets can live in the environment or a .env file
// instead of the YAML.
type ProjectConfig struct {
	Driver  string            `yaml:"driver"`
	Target  string            `yaml:"target"`
	Options map[string]string `yaml:"options,omitempty"`
	Verbose bool              `yaml:"verbose,omitempty"`
}

const ConfigFileName = "asyncdb.yaml"

// Load reads and parses asyncdb.yaml from sourcePath.
func Load(sourcePath string) (*ProjectConfig, error) {
	configPath := filepath.Join(sourcePath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}

	cfg.Target = os.ExpandEnv(cfg.Target)
	for k, v := range cfg.Options {
		cfg.Options[k] = os.ExpandEnv(v)
	}
	return &cfg, nil
}

// Save writes cfg to asyncdb.yaml in sourcePath, overwriting any
// existing file.
func Save(sourcePath string, cfg *ProjectConfig) error {
	configPath := filepath.Join(sourcePath, ConfigFileName)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}
