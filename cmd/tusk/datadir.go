// ABOUTME: XDG-based directory resolution for tusk's persistent files.
// ABOUTME: Data (logs) under XDG_DATA_HOME, config under XDG_CONFIG_HOME.
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultDataDir returns the directory for tusk's persistent state, log
// files included. XDG_DATA_HOME wins; otherwise ~/.local/share/tusk.
func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tusk"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "tusk"), nil
}

// defaultConfigDir returns the directory holding config.yaml.
// XDG_CONFIG_HOME wins; otherwise ~/.config/tusk.
func defaultConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tusk"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tusk"), nil
}
