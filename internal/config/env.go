package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides are the environment variables that take precedence over the
// YAML file. Unset variables leave the file value alone.
type envOverrides struct {
	LogLevel  *string  `env:"CCDL_LOG_LEVEL"`
	LogFormat *string  `env:"CCDL_LOG_FORMAT"`
	SimConfig *string  `env:"CCDL_SIM_CONFIG"`
	Database  *string  `env:"CCDL_DB"`
	Whitelist []string `env:"CCDL_WHITELIST" envSeparator:","`
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.LogLevel != nil {
		c.Logging.Level = *o.LogLevel
	}
	if o.LogFormat != nil {
		c.Logging.Format = *o.LogFormat
	}
	if o.SimConfig != nil {
		c.Decode.SimConfig = *o.SimConfig
	}
	if o.Database != nil {
		c.Store.Database = *o.Database
	}
	if len(o.Whitelist) > 0 {
		c.Graph.Whitelist = o.Whitelist
	}
	return nil
}
