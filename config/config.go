// Package config loads the application configuration. Values are layered:
// built-in defaults, then an agentshim.yaml file, then AGENTSHIM_* environment
// variables, then any command-line flags bound to the viper instance.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mrsaurabh009/team-of-ai-agents/logging"
	"github.com/mrsaurabh009/team-of-ai-agents/tool"
)

// EnvPrefix prefixes every environment override, e.g. AGENTSHIM_LOG_LEVEL.
const EnvPrefix = "AGENTSHIM"

// FileName is the config file name searched for when none is given.
const FileName = "agentshim"

// Engines that can be linked into the binary.
const (
	EngineEcho      = "echo"
	EngineOpenAI    = "openai"
	EngineAnthropic = "anthropic"
	EngineNone      = "none"
)

// Config is the application configuration.
type Config struct {
	// Engine selects the in-process engine installed under Package before
	// resolution. "none" relies on PATH, vendored trees and aliases only.
	Engine string `mapstructure:"engine"`

	// Package and EngineName are the expected and real engine names.
	Package    string `mapstructure:"package"`
	EngineName string `mapstructure:"engine_name"`

	// Root holds the external/ directory of vendored engines. Empty means
	// the directory of the running executable.
	Root string `mapstructure:"root"`

	// SearchPathEnv names the variable listing engine directories.
	SearchPathEnv string `mapstructure:"search_path_env"`

	Model  string `mapstructure:"model"`
	Prompt string `mapstructure:"prompt"`
	Name   string `mapstructure:"name"`

	// Tools are "name" or "name:description" entries.
	Tools []string `mapstructure:"tools"`

	Log       LogConfig      `mapstructure:"log"`
	Metrics   MetricsConfig  `mapstructure:"metrics"`
	OpenAI    ProviderConfig `mapstructure:"openai"`
	Anthropic ProviderConfig `mapstructure:"anthropic"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig toggles Prometheus collection.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ProviderConfig configures an API-backed engine. Empty values fall back to
// the provider SDK's own defaults and environment.
type ProviderConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
}

var defaults = map[string]any{
	"engine":                EngineNone,
	"package":               "xagent",
	"engine_name":           "XAgent",
	"root":                  "",
	"search_path_env":       "XAGENT_PATH",
	"model":                 "gpt-4",
	"prompt":                "You are XAgent integrated into L3AGI.",
	"name":                  "XAgent",
	"tools":                 []string{},
	"log.level":             "info",
	"log.format":            "text",
	"metrics.enabled":       false,
	"openai.api_key":        "",
	"openai.base_url":       "",
	"openai.model":          "",
	"openai.temperature":    0.7,
	"openai.max_tokens":     4096,
	"anthropic.api_key":     "",
	"anthropic.base_url":    "",
	"anthropic.model":       "",
	"anthropic.temperature": 0.7,
	"anthropic.max_tokens":  4096,
}

// NewViper returns a viper instance carrying the defaults and reading
// AGENTSHIM_* environment variables. Nested keys use underscores, so
// log.level is AGENTSHIM_LOG_LEVEL.
func NewViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration through v (NewViper when nil). An explicit
// file must exist; otherwise agentshim.yaml is looked up in the working
// directory and $HOME/.config/agentshim, and its absence is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = NewViper()
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/agentshim")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineEcho, EngineOpenAI, EngineAnthropic, EngineNone:
	default:
		return fmt.Errorf("invalid engine %q (want %s, %s, %s or %s)", c.Engine, EngineEcho, EngineOpenAI, EngineAnthropic, EngineNone)
	}
	if c.Package == "" {
		return errors.New("package must not be empty")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q (want json or text)", c.Log.Format)
	}
	return nil
}

// LoggerConfig returns the logger settings for a component.
func (c *Config) LoggerConfig(component string) *logging.LoggerConfig {
	lc := logging.DefaultLoggerConfig()
	lc.Level = logging.ParseLevel(c.Log.Level)
	lc.Format = c.Log.Format
	lc.Component = component
	return lc
}

// ToolValues converts the configured tool entries into tools.
func (c *Config) ToolValues() []any {
	out := make([]any, 0, len(c.Tools))
	for _, entry := range c.Tools {
		name, desc, _ := strings.Cut(entry, ":")
		out = append(out, tool.NewStatic(strings.TrimSpace(name), strings.TrimSpace(desc)))
	}
	return out
}
