package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath overrides the config file location when set.
const EnvPath = "NINECOPY_CONFIG"

// Config represents the optional ninecopy configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	UI       UIConfig       `toml:"ui"`
}

// DefaultsConfig holds persistent flag defaults. A nil field means the key
// was absent and the flag's built-in default stands.
type DefaultsConfig struct {
	Overwrite        *bool     `toml:"overwrite"`
	Skip             *bool     `toml:"skip"`
	CopyIfNewer      *bool     `toml:"copy_if_newer"`
	CopyIfLarger     *bool     `toml:"copy_if_larger"`
	ContinueOnError  *bool     `toml:"continue_on_error"`
	Threads          *int      `toml:"threads"`
	Progress         *bool     `toml:"progress"`
	ProgressInterval *Duration `toml:"progress_interval"`
	Verify           *bool     `toml:"verify"`
	BWLimit          *string   `toml:"bwlimit"`
	Symlinks         *string   `toml:"symlinks"`
	Exclude          []string  `toml:"exclude"`
}

// UIConfig holds terminal output preferences.
type UIConfig struct {
	// Color is "auto", "always" or "never".
	Color *string `toml:"color"`
}

// Duration decodes TOML strings like "10s" into a time.Duration.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Path returns the resolved path to the config file.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ninecopy", "config.toml")
}

// Load reads the config file from Path. Returns a zero Config (no error)
// if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile decodes the config file at path. A missing file yields a zero
// Config; unknown keys are rejected so typos do not pass silently.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}
