// Package config loads service configuration from the environment and
// optional TOML files. Environment values act as defaults; a config file,
// when present, overrides them, and command-line flags override both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LoadFile merges a TOML config file into target. A blank path is a no-op.
// A missing file at an explicitly given path is an error; decode failures
// always are.
func LoadFile(path string, target any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
