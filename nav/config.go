package nav

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file from the working directory. A missing file is
// not an error, and variables already set in the environment win.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// Resolve applies the environment overrides, fills defaults and validates
func (c NavConfig) Resolve() (NavConfig, error) {
	c = c.FromEnv().WithDefaults()
	if err := c.Validate(); err != nil {
		return NavConfig{}, fmt.Errorf("invalid nav config: %w", err)
	}
	return c, nil
}

// LoadConfigFile reads the nav table of a TOML config file, then .env and
// the environment. A missing file gives the defaults.
func LoadConfigFile(path string) (NavConfig, error) {
	var file struct {
		Nav NavConfig `toml:"nav"`
	}
	if _, err := toml.DecodeFile(path, &file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NavConfig{}, fmt.Errorf("error decoding config file: %w", err)
	}
	if err := LoadEnv(); err != nil {
		return NavConfig{}, err
	}
	return file.Nav.Resolve()
}
