// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Capture  CaptureConfig  `toml:"capture"`
	Guidance GuidanceConfig `toml:"guidance"`
}

// CaptureConfig maps capture-related settings.
type CaptureConfig struct {
	MaxZoom         *float64 `toml:"max-zoom"`
	ZoomRampRate    *float64 `toml:"zoom-ramp-rate"`
	FocusClearMs    *int     `toml:"focus-clear-ms"`
	RotationSettle  *int     `toml:"rotation-settle-ms"`
	ExposureDivisor *float64 `toml:"exposure-divisor"`
}

// GuidanceConfig maps vision guidance settings.
type GuidanceConfig struct {
	Model       *string  `toml:"model"`
	Temperature *float64 `toml:"temperature"`
	Prompt      *string  `toml:"prompt"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
