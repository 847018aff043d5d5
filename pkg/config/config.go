// Package config loads service settings from an optional YAML file and
// GRAPHGEN_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/graph-generation-service/pkg/model"
)

// Environment variables that override file settings
const (
	EnvAddr                 = "GRAPHGEN_ADDR"
	EnvLogLevel             = "GRAPHGEN_LOG_LEVEL"
	EnvMaxConcurrentRenders = "GRAPHGEN_MAX_CONCURRENT_RENDERS"
	EnvMaxBodyMB            = "GRAPHGEN_MAX_BODY_MB"
	EnvAllowedOrigins       = "GRAPHGEN_ALLOWED_ORIGINS"
)

// ErrInvalidConfig is returned when a setting is out of range
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete service configuration
type Config struct {
	Server   Server               `yaml:"server"`
	LogLevel string               `yaml:"log_level"`
	Renderer model.RendererConfig `yaml:"renderer"`
	Limits   model.Limits         `yaml:"limits"`
}

// Server holds HTTP listener settings
type Server struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:         ":5001",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		LogLevel: "info",
		Renderer: model.RendererConfig{
			MaxConcurrentRenders: 4,
		},
		Limits: model.Limits{
			MaxBodyMB:      32,
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads path (if not empty) over the defaults, then applies environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(c)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvMaxConcurrentRenders); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvMaxConcurrentRenders, v)
		}
		c.Renderer.MaxConcurrentRenders = n
	}
	if v, ok := lookup(EnvMaxBodyMB); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvMaxBodyMB, v)
		}
		c.Limits.MaxBodyMB = n
	}
	if v, ok := lookup(EnvAllowedOrigins); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Limits.AllowedOrigins = origins
	}
	return nil
}

// Validate checks ranges and the log level
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server address is empty", ErrInvalidConfig)
	}
	if c.Renderer.MaxConcurrentRenders < 1 {
		return fmt.Errorf("%w: max_concurrent_renders must be at least 1", ErrInvalidConfig)
	}
	if c.Renderer.TimeoutMS < 0 {
		return fmt.Errorf("%w: timeout_ms must not be negative", ErrInvalidConfig)
	}
	if c.Limits.MaxBodyMB < 1 {
		return fmt.Errorf("%w: max_body_mb must be at least 1", ErrInvalidConfig)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level
func (c *Config) Level() log.Level {
	lvl, _ := ParseLevel(c.LogLevel)
	return lvl
}

// ParseLevel maps a level name to an SDK log level
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.Debug, nil
	case "", "info":
		return log.Info, nil
	case "warn", "warning":
		return log.Warn, nil
	case "error":
		return log.Error, nil
	}
	return log.Info, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
}

// NewLogger builds the process logger at the configured level
func (c *Config) NewLogger() log.Logger {
	return log.NewWithLevel(c.Level())
}
