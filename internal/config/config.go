package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bloom-go/bloom/internal/errors"
	"github.com/bloom-go/bloom/pkg/element"
)

const (
	// DefaultAddr is the default listen address of `bloom serve`.
	DefaultAddr = ":8080"

	// DefaultExportDir is the default static export directory.
	DefaultExportDir = "dist"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "bloom"
)

// FileNames are the configuration files Load looks for, in order.
var FileNames = []string{"bloom.yaml", "bloom.yml", "bloom.json"}

// Config represents the complete bloom configuration.
type Config struct {
	// Name is the application name, used in page titles.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Server  ServerConfig  `json:"server" yaml:"server"`
	Session SessionConfig `json:"session" yaml:"session"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Export  ExportConfig  `json:"export" yaml:"export"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig configures the live preview server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`

	// Timeouts are Go duration strings (e.g., "10s").
	ReadTimeout     string `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    string `json:"writeTimeout" yaml:"writeTimeout"`
	ShutdownTimeout string `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// SessionConfig configures element sessions.
type SessionConfig struct {
	// DetachPolicy is "pause" or "stop".
	DetachPolicy string `json:"detachPolicy" yaml:"detachPolicy"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level" yaml:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Path      string `json:"path" yaml:"path"`
	Namespace string `json:"namespace" yaml:"namespace"`
}

// ExportConfig configures `bloom export`.
type ExportConfig struct {
	// Dir is the local output directory, used when S3.Bucket is empty.
	Dir string   `json:"dir" yaml:"dir"`
	S3  S3Config `json:"s3" yaml:"s3"`
}

// S3Config selects an S3 bucket as the export target.
type S3Config struct {
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint (MinIO, localstack).
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Name: "bloom",
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ReadTimeout:     "10s",
			WriteTimeout:    "10s",
			ShutdownTimeout: "5s",
		},
		Session: SessionConfig{
			DetachPolicy: "pause",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      DefaultMetricsPath,
			Namespace: DefaultNamespace,
		},
		Export: ExportConfig{
			Dir: DefaultExportDir,
		},
	}
}

// Load reads configuration from the first of FileNames present in dir.
// Without any configuration file the defaults are returned.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return New(), nil
}

// LoadFile reads configuration from the specified file path. Files ending
// in .json are decoded as JSON, everything else as YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E120").
			WithLocation(path, 0, 0).
			Wrap(err)
	}

	cfg := New()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E121").
			WithLocation(path, 0, 0).
			WithSuggestion("Check that " + filepath.Base(path) + " is well formed").
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for fields a file set to empty.
func (c *Config) applyDefaults() {
	d := New()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Session.DetachPolicy == "" {
		c.Session.DetachPolicy = d.Session.DetachPolicy
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = d.Metrics.Path
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.Export.Dir == "" {
		c.Export.Dir = d.Export.Dir
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	for _, f := range []struct {
		name, value string
	}{
		{"server.readTimeout", c.Server.ReadTimeout},
		{"server.writeTimeout", c.Server.WriteTimeout},
		{"server.shutdownTimeout", c.Server.ShutdownTimeout},
	} {
		d, err := time.ParseDuration(f.value)
		if err != nil || d < 0 {
			return c.invalid("%s must be a non-negative duration, got %q", f.name, f.value).
				WithSuggestion(`Use a Go duration such as "10s" or "1m30s"`)
		}
	}
	if _, err := element.ParseDetachPolicy(c.Session.DetachPolicy); err != nil {
		return c.invalid("session.detachPolicy must be pause or stop, got %q", c.Session.DetachPolicy)
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return c.invalid("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return c.invalid("log.format must be text or json, got %q", c.Log.Format)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return c.invalid("metrics.path must start with /, got %q", c.Metrics.Path)
	}
	return nil
}

func (c *Config) invalid(format string, args ...any) *errors.BloomError {
	err := errors.New("E122").WithDetailf(format, args...)
	if c.configPath != "" {
		err.WithLocation(c.configPath, 0, 0)
	}
	return err
}

// ReadTimeout returns the parsed server read timeout.
func (c *Config) ReadTimeout() time.Duration { return mustDuration(c.Server.ReadTimeout) }

// WriteTimeout returns the parsed server write timeout.
func (c *Config) WriteTimeout() time.Duration { return mustDuration(c.Server.WriteTimeout) }

// ShutdownTimeout returns the parsed graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration { return mustDuration(c.Server.ShutdownTimeout) }

// DetachPolicy returns the configured element detach policy.
func (c *Config) DetachPolicy() element.DetachPolicy {
	p, _ := element.ParseDetachPolicy(c.Session.DetachPolicy)
	return p
}

// ExportDir returns the export directory, resolved against Dir.
func (c *Config) ExportDir() string {
	if filepath.IsAbs(c.Export.Dir) {
		return c.Export.Dir
	}
	return filepath.Join(c.Dir(), c.Export.Dir)
}

// Logger builds a slog logger writing to w per the log section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// mustDuration parses a duration that Validate already accepted.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
