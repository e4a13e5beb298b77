// Package config loads settings from the TOML file and the environment.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	User        *string `toml:"user"`
	Words       *int    `toml:"words"`
	PreviewSize *int    `toml:"preview-size"`
	PreviewStep *int    `toml:"preview-step"`
	TickMs      *int    `toml:"tick-ms"`
}

// ServerConfig maps SSH server settings.
type ServerConfig struct {
	Host    *string `toml:"host"`
	Port    *int    `toml:"port"`
	HostKey *string `toml:"host-key"`
}

// LogConfig maps debug logging settings.
type LogConfig struct {
	Debug *bool   `toml:"debug"`
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
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
