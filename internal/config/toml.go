// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Every field is optional;
// a nil pointer leaves the built-in default or the CLI flag in place.
type FileConfig struct {
	Engine   EngineConfig   `toml:"engine"`
	Amsler   AmslerConfig   `toml:"amsler"`
	Reading  ReadingConfig  `toml:"reading"`
	Observer ObserverConfig `toml:"observer"`
	Log      LogConfig      `toml:"log"`
}

// EngineConfig maps settings shared by every test.
type EngineConfig struct {
	Seed *int64 `toml:"seed"`
}

// AmslerConfig maps Amsler grid settings.
type AmslerConfig struct {
	Eye              *string  `toml:"eye"`
	BlinkIntervalMs  *int     `toml:"blink-interval-ms"`
	BlinkProbability *float64 `toml:"blink-probability"`
	BlinkDurationMs  *int     `toml:"blink-duration-ms"`
}

// ReadingConfig maps reading test settings.
type ReadingConfig struct {
	Sentences *string `toml:"sentences"`
}

// ObserverConfig maps the simulated observer profile.
type ObserverConfig struct {
	PhpThreshold    *float64  `toml:"php-threshold"`
	MChartThreshold *float64  `toml:"mchart-threshold"`
	SdhSensitivity  *float64  `toml:"sdh-sensitivity"`
	Lapse           *float64  `toml:"lapse"`
	Scotoma         *[]string `toml:"scotoma"`
	ReadingWPM      *float64  `toml:"reading-wpm"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
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
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
