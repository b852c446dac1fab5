package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/efebarandurmaz/blueprint/internal/check"
)

// Config holds all application configuration.
type Config struct {
	Source   SourceConfig     `mapstructure:"source"`
	Output   OutputConfig     `mapstructure:"output"`
	Check    check.GateConfig `mapstructure:"check"`
	Graph    GraphConfig      `mapstructure:"graph"`
	Vector   VectorConfig     `mapstructure:"vector"`
	Temporal TemporalConfig   `mapstructure:"temporal"`
	Trace    TraceConfig      `mapstructure:"trace"`
	Log      LogConfig        `mapstructure:"log"`
}

type SourceConfig struct {
	Language    string `mapstructure:"language"`
	Root        string `mapstructure:"root"`
	Workers     int    `mapstructure:"workers"`     // concurrent unit walks, 0 = NumCPU
	Incremental bool   `mapstructure:"incremental"` // reuse cached output when sources are unchanged
	Force       bool   `mapstructure:"force"`       // regenerate even when the tree is unchanged

	// Per-language overrides. Keys are language identifiers (e.g.
	// "csharp"). Each override inherits unset fields from the top-level
	// source config.
	Languages map[string]SourceOverride `mapstructure:"languages"`
}

// SourceOverride allows per-language source configuration.
type SourceOverride struct {
	Root       string   `mapstructure:"root"`
	Extensions []string `mapstructure:"extensions"`
}

// ResolveForLanguage returns a SourceConfig with language-specific overrides
// applied.
func (c SourceConfig) ResolveForLanguage(lang string) SourceConfig {
	override, ok := c.Languages[lang]
	if !ok {
		return c
	}
	resolved := c
	if override.Root != "" {
		resolved.Root = override.Root
	}
	return resolved
}

// Extensions returns the configured extension override for a language, nil
// when the plugin's own extension list should be used.
func (c SourceConfig) Extensions(lang string) []string {
	if override, ok := c.Languages[lang]; ok {
		return override.Extensions
	}
	return nil
}

type OutputConfig struct {
	Dir          string `mapstructure:"dir"`
	MetricsJSON  string `mapstructure:"metrics_json"`  // path, empty = not written
	GraphFormat  string `mapstructure:"graph_format"`  // dot, mermaid or json
	PrintSummary bool   `mapstructure:"print_summary"`
}

type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type VectorConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TraceConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Source: SourceConfig{Language: "csharp", Root: "."},
		Output: OutputConfig{Dir: "diagrams", GraphFormat: "dot", PrintSummary: true},
		Check:  *check.DefaultConfig(),
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Source.Workers < 0 {
		warnings = append(warnings, fmt.Sprintf("source workers %d is negative", c.Source.Workers))
	}

	switch c.Output.GraphFormat {
	case "", "dot", "mermaid", "json":
	default:
		warnings = append(warnings, fmt.Sprintf("graph format '%s' is not one of dot, mermaid, json", c.Output.GraphFormat))
	}

	if c.Vector.Port < 0 || c.Vector.Port > 65535 {
		warnings = append(warnings, fmt.Sprintf("vector port %d is outside [0, 65535]", c.Vector.Port))
	}

	if c.Trace.Enabled && c.Trace.Endpoint == "" {
		warnings = append(warnings, "tracing is enabled but endpoint is empty")
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("log level '%s' is not one of debug, info, warn, error", c.Log.Level))
	}

	return warnings
}

// Load reads configuration from file and environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("BLUEPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Validate configuration and print warnings
	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
