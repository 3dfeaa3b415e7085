// Package config provides configuration management for the lineage CLI.
//
// Settings layer in the usual order: flags override environment variables,
// which override the config file, which overrides built-in defaults.
package config

// ViewConfig holds configuration for the graph viewer server.
type ViewConfig struct {
	Port int `koanf:"port"`
}

// DefaultViewConfig returns a ViewConfig with default values.
func DefaultViewConfig() *ViewConfig {
	return &ViewConfig{Port: DefaultViewPort}
}

// GetViewConfig returns the view config with defaults applied for any unset
// values.
func (c *Config) GetViewConfig() *ViewConfig {
	if c.View == nil {
		return DefaultViewConfig()
	}
	view := c.View
	if view.Port == 0 {
		view.Port = DefaultViewPort
	}
	return view
}

// Config holds all CLI configuration options.
type Config struct {
	Dialect      string      `koanf:"dialect"`
	OutputFormat string      `koanf:"output"`
	Verbose      bool        `koanf:"verbose"`
	SchemaPath   string      `koanf:"schema"`
	SchemaDB     string      `koanf:"schema_db"`
	View         *ViewConfig `koanf:"view"`
}

// Default configuration values.
const (
	DefaultDialect  = "clickhouse"
	DefaultOutput   = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultViewPort = 8765
)
