package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"emodccdl/internal/depgraph"
	"emodccdl/internal/logging"
)

// DefaultPath is where the CLI looks for the tool config.
const DefaultPath = ".ccdl.yaml"

// Config holds all ccdl tool configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Decode  DecodeConfig  `yaml:"decode"`
	Graph   GraphConfig   `yaml:"graph"`
	Store   StoreConfig   `yaml:"store"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // console, json
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DecodeConfig configures campaign decoding.
type DecodeConfig struct {
	// Simulation config supplying parameters.Event_Map.
	SimConfig string `yaml:"sim_config"`
	Color     bool   `yaml:"color"`
}

// GraphConfig configures the dependency graph builder.
type GraphConfig struct {
	Whitelist     []string            `yaml:"whitelist,omitempty"`
	Format        string              `yaml:"format"` // dot, json
	Style         depgraph.StyleExprs `yaml:"style,omitempty"`
	WatchDebounce string              `yaml:"watch_debounce"`
}

// StoreConfig configures the SQLite sink. An empty path disables it.
type StoreConfig struct {
	Database string `yaml:"database"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Graph: GraphConfig{
			Format:        depgraph.FormatDOT,
			WatchDebounce: "200ms",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	logging.Get(logging.CategoryConfig).Debug("loaded config from %s", path)
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetWatchDebounce returns the watch debounce as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Graph.WatchDebounce)
	if err != nil || d <= 0 {
		return 200 * time.Millisecond
	}
	return d
}

// LoggingOptions converts the logging section for logging.Initialize.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		Categories: c.Logging.Categories,
	}
}

// Styler builds the node styler described by the graph style section, or nil
// for the default.
func (c *Config) Styler() (depgraph.Styler, error) {
	if c.Graph.Style.IsZero() {
		return nil, nil
	}
	return depgraph.NewCELStyler(c.Graph.Style)
}

var (
	// ValidLevels lists the accepted log levels.
	ValidLevels = []string{"debug", "info", "warn", "error"}
	// ValidLogFormats lists the accepted log encodings.
	ValidLogFormats = []string{"console", "json"}
	// ValidGraphFormats lists the accepted graph output formats.
	ValidGraphFormats = []string{depgraph.FormatDOT, depgraph.FormatJSON}
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !slices.Contains(ValidLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	if !slices.Contains(ValidLogFormats, c.Logging.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Logging.Format, ValidLogFormats)
	}
	if !slices.Contains(ValidGraphFormats, c.Graph.Format) {
		return fmt.Errorf("invalid graph format: %s (valid: %v)", c.Graph.Format, ValidGraphFormats)
	}
	if c.Graph.WatchDebounce != "" {
		if _, err := time.ParseDuration(c.Graph.WatchDebounce); err != nil {
			return fmt.Errorf("invalid watch debounce %q: %w", c.Graph.WatchDebounce, err)
		}
	}
	if _, err := c.Styler(); err != nil {
		return fmt.Errorf("invalid graph style: %w", err)
	}
	return nil
}
