// Package config reads the stepc configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxCallDepth = 10000
	DefaultCacheSize    = 64
)

type Config struct {
	MaxCallDepth int    `yaml:"max-call-depth"` // Bound on nested calls. Default: 10000, -1 to disable.
	Lint         bool   `yaml:"lint"`           // Report lint warnings before running.
	MetricsAddr  string `yaml:"metrics-addr"`   // Address to serve /metrics on. Default: none.
	CacheSize    int    `yaml:"cache-size"`     // Number of compiled programs to keep. Default: 64
	Input        string `yaml:"input"`          // Text fed to the program's standard input.
	EchoInput    bool   `yaml:"echo-input"`     // Copy consumed input into the program's output.
}

// Default returns the configuration used when no file is given
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// FromFile reads a configuration file. Unknown keys are an error.
func FromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes a configuration document
func Parse(raw []byte) (*Config, error) {
	parsed := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(parsed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := parsed.validate(); err != nil {
		return nil, err
	}
	parsed.applyDefaults()
	return parsed, nil
}

func (c *Config) validate() error {
	if c.MaxCallDepth < -1 {
		return fmt.Errorf("config: max-call-depth must be positive or -1, not %d", c.MaxCallDepth)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("config: cache-size must be positive, not %d", c.CacheSize)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.MaxCallDepth == 0 {
		c.MaxCallDepth = DefaultMaxCallDepth
	}
	if c.CacheSize == 0 {
		c.CacheSize = DefaultCacheSize
	}
}

// CallDepth returns the bound to hand to the interpreter, 0 meaning none
func (c *Config) CallDepth() int {
	if c.MaxCallDepth == -1 {
		return 0
	}
	return c.MaxCallDepth
}
