// Package config loads the callbridge daemon configuration from a YAML
// file, applying defaults for anything left unset.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration.
type Config struct {
	// Listen is the HTTP bridge listen address.
	Listen string `yaml:"listen"`

	Log struct {
		// Level is one of DEBUG, INFO, WARN, ERROR.
		Level string `yaml:"level"`
		// Format is json or text.
		Format string `yaml:"format"`
	} `yaml:"log"`

	History struct {
		// Path of the SQLite call-history database. Empty disables
		// persistent history.
		Path string `yaml:"path"`
		// KeepRecent bounds the retained history window.
		KeepRecent int `yaml:"keep_recent"`
	} `yaml:"history"`
}

// Default returns the baseline configuration.
func Default() Config {
	var cfg Config
	cfg.Listen = "127.0.0.1:8316"
	cfg.Log.Level = "INFO"
	cfg.Log.Format = "text"
	cfg.History.KeepRecent = 1000
	return cfg
}

// Load reads the configuration file at path. An empty path returns the
// defaults; a missing file is an error so typos surface early.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
