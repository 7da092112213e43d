// Package config provides configuration loading and management for
// cellfeat. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Texture parameters
	Texture struct {
		// Scale is the texture scale in pixels: the co-occurrence pair
		// shift and the base Gabor wavelength parameter
		Scale int `yaml:"scale"`

		// Levels is the number of grey levels for co-occurrence quantization
		Levels int `yaml:"levels"`

		// GaborFrequencies is the number of Gabor bank frequencies; each
		// frequency contributes an x- and a y-oriented feature column
		GaborFrequencies int `yaml:"gaborFrequencies"`
	} `yaml:"texture"`

	// Shape parameters
	Shape struct {
		// ZernikeDegree is the highest Zernike polynomial degree
		ZernikeDegree int `yaml:"zernikeDegree"`

		// PixelSize is the physical size of one pixel; areas scale by its
		// square and perimeters linearly
		PixelSize float64 `yaml:"pixelSize"`
	} `yaml:"shape"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for the per-object passes
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default texture parameters
	cfg.Texture.Scale = 3
	cfg.Texture.Levels = 8
	cfg.Texture.GaborFrequencies = 1

	// Set default shape parameters
	cfg.Shape.ZernikeDegree = 9
	cfg.Shape.PixelSize = 1.0

	// Set default processing parameters
	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default

	// Set default output parameters
	cfg.Output.Verbose = true

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

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
