package config

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// DefaultPath is the config file location relative to the user's home
// directory.
const DefaultPath = ".config/zigup.yml"

// Config holds the optional file-based defaults. Flags always win
// over file values; file values win over built-in defaults. The zero
// value means "use built-ins everywhere".
type Config struct {
	IndexURL    string `yaml:"index_url"`
	InstallRoot string `yaml:"install_root"`
	BinDir      string `yaml:"bin_dir"`
	SkipZLS     bool   `yaml:"skip_zls"`
}

// Load reads and parses a zigup config file from the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file: %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file: %s", path)
	}

	return &cfg, nil
}

// LoadOrDefault loads the config at path, or, when path is empty,
// looks for the default file under $HOME. A missing default file is
// not an error; an explicitly named file must exist.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return &Config{}, nil
	}

	candidate := filepath.Join(home, DefaultPath)
	if _, err := os.Stat(candidate); err != nil {
		return &Config{}, nil
	}
	return Load(candidate)
}
