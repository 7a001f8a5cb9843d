// Package config handles liveedit.toml run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const FileName = "liveedit.toml"

var ErrNegativeSteps = errors.New("max-steps must not be negative")

type Config struct {
	Interpreter Interpreter `toml:"interpreter"`
	Trace       Trace       `toml:"trace"`
	Log         Log         `toml:"log"`
	Run         Run         `toml:"run"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

type Interpreter struct {
	Debug    bool `toml:"debug"`
	MaxSteps int  `toml:"max-steps"`
}

type Trace struct {
	// Collapse folds interpreter frames out of guest stack traces.
	Collapse *bool `toml:"collapse"`
}

type Log struct {
	Level  string `toml:"level"`
	Prefix string `toml:"prefix"`
	Caller bool   `toml:"caller"`
}

// Run names the method executed when the command line gives none.
type Run struct {
	Entry string   `toml:"entry"`
	Args  []string `toml:"args"`
}

// Default is the configuration used without a file.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Trace.Collapse == nil {
		collapse := true
		c.Trace.Collapse = &collapse
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Prefix == "" {
		c.Log.Prefix = "LIVEEDIT"
	}
	if c.Run.Entry == "" {
		c.Run.Entry = "main"
	}
}

// CollapseTraces reports the effective [trace] collapse setting.
func (c *Config) CollapseTraces() bool {
	return c.Trace.Collapse == nil || *c.Trace.Collapse
}

// Parse decodes a configuration from TOML text.
func Parse(data string) (*Config, error) {
	var c Config
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	if c.Interpreter.MaxSteps < 0 {
		return nil, ErrNegativeSteps
	}

	c.applyDefaults()
	return &c, nil
}

// Load reads a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	c, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// Find loads liveedit.toml from dir when it exists and returns the defaults
// otherwise.
func Find(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Load(path)
}
