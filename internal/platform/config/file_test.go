package config

import (
	"os"
	"path/filepath"
	"testing"
)

type fileTestConfig struct {
	Port    int    `toml:"port"`
	BaseURL string `toml:"base_url"`
}

func TestLoadFileBlankPathIsNoOp(t *testing.T) {
	cfg := fileTestConfig{Port: 1}
	if err := LoadFile("  ", &cfg); err != nil {
		t.Fatalf("load blank path: %v", err)
	}
	if cfg.Port != 1 {
		t.Fatalf("port = %d, want untouched 1", cfg.Port)
	}
}

func TestLoadFileMergesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rolodex.toml")
	if err := os.WriteFile(path, []byte("port = 9001\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := fileTestConfig{Port: 1, BaseURL: "https://example.com"}
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.Port != 9001 {
		t.Fatalf("port = %d, want 9001", cfg.Port)
	}
	if cfg.BaseURL != "https://example.com" {
		t.Fatalf("base url = %q, want prior value kept", cfg.BaseURL)
	}
}

func TestLoadFileMissingPath(t *testing.T) {
	var cfg fileTestConfig
	if err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"), &cfg); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rolodex.toml")
	if err := os.WriteFile(path, []byte("port = ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var cfg fileTestConfig
	if err := LoadFile(path, &cfg); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}
