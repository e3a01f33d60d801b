// Package config loads the Asilo server configuration: built-in defaults,
// then an optional YAML file, then ASILO_* environment variables. Command
// line flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/me/asilo/internal/patients"
	"github.com/me/asilo/pkg/directory"
)

// Environment variables that override file settings.
const (
	EnvAddr         = "ASILO_ADDR"
	EnvLogLevel     = "ASILO_LOG_LEVEL"
	EnvLogFormat    = "ASILO_LOG_FORMAT"
	EnvDirectoryURL = "ASILO_DIRECTORY_URL"
	EnvViewTTL      = "ASILO_VIEW_TTL"
)

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Directory DirectoryConfig `yaml:"directory"`
	Views     ViewsConfig     `yaml:"views"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"` // Listen address (default ":8080")
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DirectoryConfig points at the remote patient collection.
type DirectoryConfig struct {
	BaseURL string        `yaml:"base_url"`
	Path    string        `yaml:"path"`
	Limit   int           `yaml:"limit"`
	Timeout time.Duration `yaml:"timeout"`
}

// ViewsConfig bounds the mounted patient views.
type ViewsConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxMounted    int           `yaml:"max_mounted"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns sensible defaults.
func Default() Config {
	dir := directory.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Directory: DirectoryConfig{
			BaseURL: dir.BaseURL,
			Path:    dir.Path,
			Limit:   dir.Limit,
			Timeout: dir.Timeout,
		},
		Views: ViewsConfig{
			TTL:           patients.DefaultViewTTL,
			SweepInterval: time.Minute,
			MaxMounted:    patients.DefaultMaxMounted,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped when
// path is empty) and then with environment overrides. The result is not
// validated; call Validate after applying flags.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode rejects unknown keys so a misspelt setting is not silently ignored.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvDirectoryURL); v != "" {
		c.Directory.BaseURL = v
	}
	if v := os.Getenv(EnvViewTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvViewTTL, err)
		}
		c.Views.TTL = d
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.idle_timeout", c.Server.IdleTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"directory.timeout", c.Directory.Timeout},
		{"views.ttl", c.Views.TTL},
		{"views.sweep_interval", c.Views.SweepInterval},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.d)
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	u, err := url.Parse(c.Directory.BaseURL)
	if err != nil {
		return fmt.Errorf("directory.base_url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("directory.base_url %q must be an absolute URL", c.Directory.BaseURL)
	}
	if c.Directory.Limit < 1 || c.Directory.Limit > directory.MaxLimit {
		return fmt.Errorf("directory.limit must be between 1 and %d, got %d", directory.MaxLimit, c.Directory.Limit)
	}

	if c.Views.MaxMounted < 1 {
		return fmt.Errorf("views.max_mounted must be at least 1, got %d", c.Views.MaxMounted)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path)
	}
	return nil
}

// DirectoryClient returns the remote client settings.
func (c Config) DirectoryClient() directory.Config {
	return directory.Config{
		BaseURL: c.Directory.BaseURL,
		Path:    c.Directory.Path,
		Limit:   c.Directory.Limit,
		Timeout: c.Directory.Timeout,
	}
}

// Registry returns the view registry settings.
func (c Config) Registry() patients.RegistryConfig {
	return patients.RegistryConfig{
		TTL:        c.Views.TTL,
		MaxMounted: c.Views.MaxMounted,
	}
}
