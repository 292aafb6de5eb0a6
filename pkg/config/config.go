// Package config loads formprobe settings from INI files with embedded defaults.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

//go:embed defaults/config
var defaultsFS embed.FS

// localDirName is the per-project config directory, looked up in the working directory.
const localDirName = ".formprobe"

// Config holds the merged configuration: embedded defaults, global and local overrides.
type Config struct {
	Values
	Colors ColorConfig

	configDir string // global config directory
	localDir  string // project-local config directory, empty if absent
}

// Load reads configuration from configDir (empty uses DefaultConfigDir) and the
// project-local .formprobe directory if present. installs defaults into configDir on first use.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	localDir := ""
	if st, err := os.Stat(localDirName); err == nil && st.IsDir() {
		if abs, absErr := filepath.Abs(localDirName); absErr == nil {
			localDir = abs
		}
	}

	return loadWithLocal(configDir, localDir)
}

// loadWithLocal loads config from an explicit global dir and optional local dir.
func loadWithLocal(globalDir, localDir string) (*Config, error) {
	if err := newDefaultsInstaller(defaultsFS).Install(globalDir); err != nil {
		return nil, fmt.Errorf("install defaults: %w", err)
	}

	globalPath := filepath.Join(globalDir, "config")
	localPath := ""
	if localDir != "" {
		localPath = filepath.Join(localDir, "config")
	}

	values, err := newValuesLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}

	colors, err := newColorLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load colors: %w", err)
	}

	return &Config{Values: values, Colors: colors, configDir: globalDir, localDir: localDir}, nil
}

// DefaultConfigDir returns the global config directory, ~/.config/formprobe.
// falls back to a relative .config/formprobe if the home directory can't be resolved.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "formprobe")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "formprobe")
	}
	return filepath.Join(home, ".config", "formprobe")
}

// ConfigDir returns the global config directory in use.
func (c *Config) ConfigDir() string { return c.configDir }

// LocalDir returns the project-local config directory, empty if not used.
func (c *Config) LocalDir() string { return c.localDir }

// Duration converts a millisecond setting into a time.Duration.
func Duration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
