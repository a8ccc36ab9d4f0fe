// Package config loads the daemon configuration from YAML. Environment
// variables are expanded over the raw file before decoding, so credentials
// can live outside the file as ${OLT_PASSWORD}-style references.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen  string            `yaml:"listen"`
	Log     LogConfig         `yaml:"log"`
	Session SessionConfig     `yaml:"session"`
	History HistoryConfig     `yaml:"history"`
	Devices map[string]Device `yaml:"devices"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file,omitempty"`
	Source bool   `yaml:"source,omitempty"`
}

// SessionConfig overrides the engine defaults. Zero values mean "use the
// engine's own default" so an empty config stays valid.
type SessionConfig struct {
	ConnectTimeout     Duration `yaml:"connectTimeout,omitempty"`
	CommandTimeout     Duration `yaml:"commandTimeout,omitempty"`
	LongCommandTimeout Duration `yaml:"longCommandTimeout,omitempty"`
	PageLimit          int      `yaml:"pageLimit,omitempty"`
	IdleTimeout        Duration `yaml:"idleTimeout,omitempty"`
}

type HistoryConfig struct {
	// Path of the SQLite database. Empty disables history.
	Path string `yaml:"path,omitempty"`
}

// Device is a named preset for the run command, so frequently used OLTs do
// not need their address and credentials on the command line.
type Device struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port,omitempty"`
	Transport      string `yaml:"transport,omitempty"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	EnablePassword string `yaml:"enablePassword,omitempty"`
	Charset        string `yaml:"charset,omitempty"`
}

func Default() *Config {
	return &Config{
		Listen: ":8080",
		Log:    LogConfig{Level: "info"},
		Session: SessionConfig{
			IdleTimeout: Duration{10 * time.Minute},
		},
	}
}

// Load reads and decodes a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Duration wraps time.Duration so config values can be written as "30s".
// Bare numbers are taken as seconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int
	if err := value.Decode(&n); err == nil {
		d.Duration = time.Duration(n) * time.Second
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
