// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for framekit.
type Config struct {
	// Processing
	Workers         int    `yaml:"workers" toml:"workers"`
	PreviewSize     int    `yaml:"preview_size" toml:"preview_size"`
	BackgroundColor string `yaml:"background_color" toml:"background_color"`
	MaxInputSize    string `yaml:"max_input_size" toml:"max_input_size"`

	// Output
	OutputDir string          `yaml:"output_dir" toml:"output_dir"`
	Quality   QualityConfig   `yaml:"quality" toml:"quality"`
	Container ContainerConfig `yaml:"container" toml:"container"`

	// Logging
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

// QualityConfig represents encoder quality settings.
type QualityConfig struct {
	Value    int  `yaml:"value" toml:"value"`
	Effort   int  `yaml:"effort" toml:"effort"`
	Lossless bool `yaml:"lossless" toml:"lossless"`
}

// ContainerConfig represents animated container settings.
type ContainerConfig struct {
	DelayMs   int `yaml:"delay_ms" toml:"delay_ms"`
	LoopCount int `yaml:"loop_count" toml:"loop_count"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Workers:         0, // runtime.NumCPU()
		PreviewSize:     1024,
		BackgroundColor: "#ffffff",
		MaxInputSize:    "256MB",

		OutputDir: ".",
		Quality: QualityConfig{
			Value:  90,
			Effort: 7,
		},
		Container: ContainerConfig{
			DelayMs:   100,
			LoopCount: 0,
		},

		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML or TOML file, chosen by extension.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.PreviewSize <= 0 {
		return fmt.Errorf("preview_size must be positive")
	}
	if c.Quality.Value < 1 || c.Quality.Value > 100 {
		return fmt.Errorf("quality.value must be within 1-100")
	}
	if c.Container.DelayMs < 0 {
		return fmt.Errorf("container.delay_ms must not be negative")
	}
	if _, err := c.MaxInputBytes(); err != nil {
		return err
	}
	return nil
}

// MaxInputBytes returns the parsed input size limit. An empty value means no limit.
func (c Config) MaxInputBytes() (int64, error) {
	if c.MaxInputSize == "" {
		return 0, nil
	}
	n, err := units.FromHumanSize(c.MaxInputSize)
	if err != nil {
		return 0, fmt.Errorf("max_input_size: %w", err)
	}
	return n, nil
}

// Background returns the parsed background color.
func (c Config) Background() color.Color {
	return ParseColor(c.BackgroundColor)
}

// ParseColor parses a hex color string to color.Color.
func ParseColor(hex string) color.Color {
	if len(hex) == 0 {
		return color.Black
	}

	if hex[0] == '#' {
		hex = hex[1:]
	}

	switch len(hex) {
	case 6:
		return color.RGBA{R: hexByte(hex[0], hex[1]), G: hexByte(hex[2], hex[3]), B: hexByte(hex[4], hex[5]), A: 255}
	case 8:
		return color.NRGBA{R: hexByte(hex[0], hex[1]), G: hexByte(hex[2], hex[3]), B: hexByte(hex[4], hex[5]), A: hexByte(hex[6], hex[7])}
	default:
		return color.Black
	}
}

func hexByte(hi, lo byte) uint8 {
	return hexValue(hi)<<4 | hexValue(lo)
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
