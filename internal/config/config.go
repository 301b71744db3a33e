// Package config loads the optional converter.toml settings file.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the tunables a user can override on disk.
type Config struct {
	// Workers bounds the conversion pool. Zero means one per CPU.
	Workers int       `toml:"workers"`
	CSV     CSVConfig `toml:"csv"`
}

type CSVConfig struct {
	WriteBOM bool `toml:"write_bom"`
	CRLF     bool `toml:"crlf"`
}

// Default matches the original product: UTF-8 with BOM, LF endings,
// one worker per CPU.
func Default() Config {
	return Config{
		Workers: runtime.NumCPU(),
		CSV:     CSVConfig{WriteBOM: true},
	}
}

// Load reads path over the defaults. A missing file is not an error;
// a file that exists but will not parse is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Workers < 0 {
		return cfg, fmt.Errorf("%s: workers must not be negative", path)
	}
	return cfg, nil
}
