package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Canvas   CanvasConfig   `json:"canvas"`
	Sampling SamplingConfig `json:"sampling"`
	Matte    MatteConfig    `json:"matte"`
	Blur     BlurConfig     `json:"blur"`
	Output   OutputConfig   `json:"output"`
}

// CanvasConfig fixes the output geometry of the composite
type CanvasConfig struct {
	Width          int `json:"width"`
	Height         int `json:"height"`
	ConcatCellSize int `json:"concat_cell_size"`
}

// SamplingConfig holds defaults for the frame sampling pass
type SamplingConfig struct {
	DefaultFrameCount int    `json:"default_frame_count"`
	DefaultDirection  string `json:"default_direction"`
}

// MatteConfig holds defaults for the matte detection pre-pass
type MatteConfig struct {
	SampleCount int `json:"sample_count"`
	Threshold   int `json:"threshold"`
}

// BlurConfig holds defaults for the motion blur post-process
type BlurConfig struct {
	DefaultAmount int `json:"default_amount"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format            string `json:"format"`
	Quality           int    `json:"quality"`
	Lossless          bool   `json:"lossless"`
	UncaptionedPrefix string `json:"uncaptioned_prefix"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{
			Width:          2160,
			Height:         3840,
			ConcatCellSize: 1,
		},
		Sampling: SamplingConfig{
			DefaultFrameCount: 1280,
			DefaultDirection:  "vertical",
		},
		Matte: MatteConfig{
			SampleCount: 10,
			Threshold:   3,
		},
		Blur: BlurConfig{
			DefaultAmount: 100,
		},
		Output: OutputConfig{
			Format:            "png",
			Quality:           90,
			Lossless:          false,
			UncaptionedPrefix: "no_text_",
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Canvas.Width < 1 || c.Canvas.Height < 1 {
		return fmt.Errorf("canvas.width and canvas.height must be positive")
	}

	if c.Canvas.ConcatCellSize < 1 {
		return fmt.Errorf("canvas.concat_cell_size must be positive")
	}

	if c.Sampling.DefaultFrameCount < 1 {
		return fmt.Errorf("sampling.default_frame_count must be positive")
	}

	if c.Sampling.DefaultDirection != "horizontal" && c.Sampling.DefaultDirection != "vertical" {
		return fmt.Errorf("sampling.default_direction must be \"horizontal\" or \"vertical\"")
	}

	if c.Matte.SampleCount < 1 {
		return fmt.Errorf("matte.sample_count must be positive")
	}

	if c.Matte.Threshold < 0 || c.Matte.Threshold > 255 {
		return fmt.Errorf("matte.threshold must be between 0 and 255")
	}

	if c.Blur.DefaultAmount < 1 {
		return fmt.Errorf("blur.default_amount must be positive")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "framevis", "config.json")
}
