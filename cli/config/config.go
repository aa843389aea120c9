// Package config handles CLI configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAPIKeyRef is the keystore entry holding the Venice API key.
const DefaultAPIKeyRef = "venice"

// Config represents the CLI configuration.
type Config struct {
	DefaultModel string        `yaml:"default_model"`
	BaseURL      string        `yaml:"base_url,omitempty"`
	LogLevel     string        `yaml:"log_level,omitempty"`
	APIKeyRef    string        `yaml:"api_key_ref,omitempty"`
	OutputDir    string        `yaml:"output_dir,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	MaxRetries   *int          `yaml:"max_retries,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultModel: "venice-uncensored",
		LogLevel:     "warn",
		APIKeyRef:    DefaultAPIKeyRef,
		OutputDir:    ".",
	}
}

// DefaultDir returns the per-user directory holding the config file and
// keystore.
// - macOS/Linux: ~/.venice
// - Windows: %USERPROFILE%\.venice
func DefaultDir() string {
	var homeDir string
	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		return "."
	}
	return filepath.Join(homeDir, ".venice")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// LoadConfig loads configuration from path on top of Default. A missing
// file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.APIKeyRef == "" {
		cfg.APIKeyRef = DefaultAPIKeyRef
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed. An existing
// file is only replaced when overwrite is set.
func Save(path string, cfg *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
