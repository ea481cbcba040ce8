package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/nwah/looprun-server/nav"
)

// Config holds the application configuration
type Config struct {
	Port string        `toml:"port"`
	Nav  nav.NavConfig `toml:"nav"`
}

var config Config

// LoadConfig loads the configuration from a TOML file, then applies
// overrides from a .env file and the process environment. A missing
// config file is not an error; the defaults give a fallback-only server.
func LoadConfig(filename string) error {
	cfg := Config{}
	if _, err := toml.DecodeFile(filename, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error decoding config file: %w", err)
		}
		log.Printf("Warn: config file %s not found, using defaults", filename)
	}

	if err := nav.LoadEnv(); err != nil {
		return err
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if cfg.Port == "" {
		cfg.Port = ":8080" // Default port
	}

	navCfg, err := cfg.Nav.Resolve()
	if err != nil {
		return err
	}
	cfg.Nav = navCfg

	config = cfg
	return nil
}

// GetConfig returns the current configuration
func GetConfig() Config {
	return config
}

// GetNavConfig returns the navigation-specific configuration
func GetNavConfig() nav.NavConfig {
	return config.Nav
}
