// Package config loads the YAML settings shared by the host tools.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Console ConsoleConfig `yaml:"console"`
	Sim     SimConfig     `yaml:"sim"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Port          string `yaml:"port"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

// ---- CONSOLE ----

type ConsoleConfig struct {
	Prompt string `yaml:"prompt"`

	// Startup lines are sent to the station right after connecting
	Startup []string `yaml:"startup"`
}

// ---- SIMULATOR ----

type SimConfig struct {
	ReportMs int  `yaml:"report_ms"` // pulse width report period
	Fast     bool `yaml:"fast"`       // run unpaced instead of in real time

	// Startup lines are fed to the station before stdin
	Startup []string `yaml:"startup"`
}

const (
	DefaultBaud          = 115200
	DefaultReadTimeoutMs = 100
	DefaultPrompt        = "station> "
	DefaultReportMs      = 1000

	// MaxLineLength matches the station's line buffer, terminator included
	MaxLineLength = 32
)

// Load reads and parses a YAML config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML and fills in defaults. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is given
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = DefaultBaud
	}
	if cfg.Serial.ReadTimeoutMs == 0 {
		cfg.Serial.ReadTimeoutMs = DefaultReadTimeoutMs
	}
	if cfg.Console.Prompt == "" {
		cfg.Console.Prompt = DefaultPrompt
	}
	if cfg.Sim.ReportMs == 0 {
		cfg.Sim.ReportMs = DefaultReportMs
	}
}
