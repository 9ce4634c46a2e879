package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Terminal  TerminalConfig  `toml:"terminal"`
	Attention AttentionConfig `toml:"attention"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090" toml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" toml:"host"`
}

// TerminalConfig holds shell spawn defaults.
type TerminalConfig struct {
	Shell      string `envconfig:"TERM_SHELL" toml:"shell"`
	WorkingDir string `envconfig:"TERM_WORKDIR" toml:"working_dir"`
	Cols       int    `envconfig:"TERM_COLS" default:"80" toml:"cols"`
	Rows       int    `envconfig:"TERM_ROWS" default:"24" toml:"rows"`
}

// AttentionConfig holds background-output flash configuration.
type AttentionConfig struct {
	FlashDuration Duration `envconfig:"ATTENTION_FLASH_DURATION" default:"3s" toml:"flash_duration"`
}

// Duration is a time.Duration that unmarshals from strings like "3s" in
// both environment and TOML sources.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the plain time.Duration value.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" toml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads configuration from a TOML file, starting from defaults.
// File-based and environment-based configuration are alternative sources,
// not merged: CONFIG_FILE selects the file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from CONFIG_FILE if set, otherwise
// from environment variables, falling back to defaults on error.
func LoadOrDefault() *Config {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if cfg, err := LoadFile(path); err == nil {
			return cfg
		}
		return Default()
	}
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8090",
			Host: "0.0.0.0",
		},
		Terminal: TerminalConfig{
			Cols: 80,
			Rows: 24,
		},
		Attention: AttentionConfig{
			FlashDuration: Duration(3 * time.Second),
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
