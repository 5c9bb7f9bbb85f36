// Package config provides configuration loading and management for atlasdl.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// API parameters for the atlas web service
	API struct {
		// BaseURL is the root URL of the atlas API
		BaseURL string `yaml:"baseURL"`

		// TimeoutSeconds bounds every HTTP round trip; 0 means no timeout
		TimeoutSeconds int `yaml:"timeoutSeconds"`
	} `yaml:"api"`

	// Download parameters applied when synchronizing a dataset
	Download struct {
		// DownsampleRef is the reference-space grid stride
		DownsampleRef int `yaml:"downsampleRef"`

		// DownsampleImg downsamples downloaded images by 2^DownsampleImg
		DownsampleImg int `yaml:"downsampleImg"`

		// IncludeExpression also downloads the gene-expression images
		IncludeExpression bool `yaml:"includeExpression"`
	} `yaml:"download"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.API.BaseURL = "http://api.brain-map.org"
	cfg.API.TimeoutSeconds = 120

	cfg.Download.DownsampleRef = 25
	cfg.Download.DownsampleImg = 0
	cfg.Download.IncludeExpression = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
