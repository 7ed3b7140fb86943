// Package config handles loading, validating, and defaulting exportd
// configuration.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport names accepted in exporter definitions.
const (
	TransportFile = "file"
	TransportUnix = "unix"
)

// Intake source constants.
const (
	SourceStdin      = "stdin"
	sourceUnixPrefix = "unix:"
)

// Logging and metrics defaults.
const (
	DefaultLogFormat     = "json"
	DefaultLogOutput     = "stdout"
	OutputFile           = "file"
	OutputBoth           = "both"
	DefaultMetricsListen = "127.0.0.1:9240"
)

// DefaultConnectTimeout bounds unix socket connection attempts when an
// exporter does not set its own.
const DefaultConnectTimeout = 250 * time.Millisecond

// Exporter defines one destination records are delivered to.
type Exporter struct {
	Name        string `yaml:"name"`
	Transport   string `yaml:"transport"`   // file, unix
	Destination string `yaml:"destination"` // path; text after the first space is reserved
	// ConnectTimeoutMS bounds a unix socket connect, retries included.
	ConnectTimeoutMS int `yaml:"connect_timeout_ms"`
}

// ConnectTimeout returns the exporter's connect timeout as a duration.
func (e Exporter) ConnectTimeout() time.Duration {
	return time.Duration(e.ConnectTimeoutMS) * time.Millisecond
}

// Path returns the destination with any trailing parameters cut off.
func (e Exporter) Path() string {
	if i := strings.IndexByte(e.Destination, ' '); i >= 0 {
		return e.Destination[:i]
	}
	return e.Destination
}

// Intake configures where event records enter the pipeline.
type Intake struct {
	// Source is "stdin" or "unix:<path>" for a listening socket.
	Source string `yaml:"source"`
	// MaxLineBytes caps one record line; longer lines are dropped.
	MaxLineBytes int `yaml:"max_line_bytes"`
	// MaxRecordsPerSecond drops records over the cap. 0 disables.
	MaxRecordsPerSecond int `yaml:"max_records_per_second"`
}

// SocketPath returns the listen path for a unix intake source, or ""
// when reading stdin.
func (i Intake) SocketPath() string {
	return strings.TrimPrefix(i.Source, sourceUnixPrefix)
}

// Logging configures the process diagnostic logger.
type Logging struct {
	Format string `yaml:"format"` // json, console
	Output string `yaml:"output"` // stdout, file, both
	File   string `yaml:"file"`
	Level  string `yaml:"level"` // zerolog level name; default info
}

// Metrics configures the Prometheus/stats HTTP endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Sentry configures optional crash reporting.
type Sentry struct {
	DSN string `yaml:"dsn"`
}

// Config is the top-level exportd configuration.
type Config struct {
	Version   int        `yaml:"version"`
	Exporters []Exporter `yaml:"exporters"`
	Intake    Intake     `yaml:"intake"`
	Logging   Logging    `yaml:"logging"`
	Metrics   Metrics    `yaml:"metrics"`
	Sentry    Sentry     `yaml:"sentry"`
}

// Load reads, defaults, and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path from caller
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.ApplyDefaults()

	// Resolve relative log file path relative to the config directory.
	if cfg.Logging.File != "" && !filepath.IsAbs(cfg.Logging.File) {
		cfg.Logging.File = filepath.Join(filepath.Dir(path), cfg.Logging.File)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with no exporters and all defaults applied.
func Defaults() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero values. Safe to call more than once.
func (c *Config) ApplyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Intake.Source == "" {
		c.Intake.Source = SourceStdin
	}
	if c.Intake.MaxLineBytes <= 0 {
		c.Intake.MaxLineBytes = 1 << 20
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = DefaultLogOutput
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}
	for i := range c.Exporters {
		if c.Exporters[i].ConnectTimeoutMS <= 0 {
			c.Exporters[i].ConnectTimeoutMS = int(DefaultConnectTimeout / time.Millisecond)
		}
	}
}

// Validate checks the config for contradictions and typos. It returns
// the first problem found with enough context to fix it.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Exporters))
	for i, e := range c.Exporters {
		if e.Name == "" {
			return fmt.Errorf("exporter %d is missing a name", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate exporter name %q", e.Name)
		}
		seen[e.Name] = true

		switch e.Transport {
		case TransportFile, TransportUnix:
			// valid
		default:
			return fmt.Errorf("exporter %q has invalid transport %q: must be file or unix", e.Name, e.Transport)
		}

		if e.Path() == "" {
			return fmt.Errorf("exporter %q is missing a destination path", e.Name)
		}
	}

	if c.Intake.Source != SourceStdin {
		if !strings.HasPrefix(c.Intake.Source, sourceUnixPrefix) || c.Intake.SocketPath() == "" {
			return fmt.Errorf("invalid intake source %q: must be stdin or unix:<path>", c.Intake.Source)
		}
	}
	if c.Intake.MaxRecordsPerSecond < 0 {
		return fmt.Errorf("intake.max_records_per_second must not be negative")
	}

	switch c.Logging.Format {
	case DefaultLogFormat, "console":
		// valid
	default:
		return fmt.Errorf("invalid logging format %q: must be json or console", c.Logging.Format)
	}

	switch c.Logging.Output {
	case DefaultLogOutput, OutputFile, OutputBoth:
		// valid
	default:
		return fmt.Errorf("invalid logging output %q: must be stdout, file, or both", c.Logging.Output)
	}

	if (c.Logging.Output == OutputFile || c.Logging.Output == OutputBoth) && c.Logging.File == "" {
		return fmt.Errorf("logging.file is required when output is %q", c.Logging.Output)
	}

	if c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return fmt.Errorf("invalid metrics listen address %q: %w", c.Metrics.Listen, err)
		}
	}

	return nil
}
