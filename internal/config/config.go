// Package config loads tool settings from a ward.toml file and layers
// command-line overrides on top.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// DefaultFile is looked for in the working directory when no -config flag
// is given.
const DefaultFile = "ward.toml"

type Config struct {
	// SearchPaths are extra directories consulted by IMPORT, after the
	// script's own directory.
	SearchPaths []string `toml:"search_paths"`
	// Report is the destination results are written to when the script
	// itself sets none. Empty means skip reporting.
	Report   string `toml:"report"`
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
}

// Load reads a TOML config file. A missing DefaultFile is not an error; a
// missing explicitly named file is.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	explicit := path != ""
	if path == "" {
		path = DefaultFile
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}
