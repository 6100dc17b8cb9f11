// ABOUTME: Tests for XDG-based data and config directory resolution.
package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDataDirUsesXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	dir, err := defaultDataDir()
	if err != nil {
		t.Fatalf("defaultDataDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-data", "tusk") {
		t.Errorf("dir = %q, want it under XDG_DATA_HOME", dir)
	}
}

func TestDefaultDataDirFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	os.Unsetenv("XDG_DATA_HOME")

	dir, err := defaultDataDir()
	if err != nil {
		t.Fatalf("defaultDataDir: %v", err)
	}
	if !strings.HasSuffix(dir, filepath.Join(".local", "share", "tusk")) {
		t.Errorf("dir = %q, want ~/.local/share/tusk", dir)
	}
}

func TestDefaultConfigDirUsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")

	dir, err := defaultConfigDir()
	if err != nil {
		t.Fatalf("defaultConfigDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-config", "tusk") {
		t.Errorf("dir = %q, want it under XDG_CONFIG_HOME", dir)
	}
}

func TestDefaultConfigDirFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	os.Unsetenv("XDG_CONFIG_HOME")

	dir, err := defaultConfigDir()
	if err != nil {
		t.Fatalf("defaultConfigDir: %v", err)
	}
	if !strings.HasSuffix(dir, filepath.Join(".config", "tusk")) {
		t.Errorf("dir = %q, want ~/.config/tusk", dir)
	}
}
