package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/depchain/pkg/depchain"
	"github.com/Sumatoshi-tech/depchain/pkg/syntax"
	"github.com/Sumatoshi-tech/depchain/pkg/workspace"
)

// Sentinel validation errors.
var (
	ErrInvalidConcurrency = errors.New("concurrency must not be negative")
	ErrInvalidExtension   = errors.New("source extension must start with a dot")
	ErrInvalidGrammar     = errors.New("grammar binding needs an extension and a grammar name")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidCacheSize   = errors.New("invalid cache size")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
)

const (
	configName = "depchain"
	configType = "yaml"
	envPrefix  = "DEPCHAIN"

	envKeySeparator = "_"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config holds all depchain settings.
type Config struct {
	Ignore        IgnoreConfig        `mapstructure:"ignore"`
	Source        SourceConfig        `mapstructure:"source"`
	Check         CheckConfig         `mapstructure:"check"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// IgnoreConfig holds the rollout allowances.
type IgnoreConfig struct {
	// Imports are package names every package may import undeclared.
	Imports []string `mapstructure:"imports"`
	// Packages are never checked.
	Packages []string `mapstructure:"packages"`
}

// SourceConfig selects the files to check.
type SourceConfig struct {
	Extensions []string `mapstructure:"extensions"`
	// Grammars binds extra extensions to tree-sitter grammars, e.g.
	// {extension: .gjs, grammar: glimmer_javascript}.
	Grammars []GrammarConfig `mapstructure:"grammars"`
}

// GrammarConfig binds one file extension to a grammar name.
type GrammarConfig struct {
	Extension string `mapstructure:"extension"`
	Grammar   string `mapstructure:"grammar"`
}

// CheckConfig controls the workspace run.
type CheckConfig struct {
	Areas           []string `mapstructure:"areas"`
	Concurrency     int      `mapstructure:"concurrency"`
	FileConcurrency int      `mapstructure:"file_concurrency"`
}

// CacheConfig controls the extraction cache.
type CacheConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    string `mapstructure:"max_size"`
	MaxEntries int    `mapstructure:"max_entries"`
	Enabled    bool   `mapstructure:"enabled"`
}

// LoggingConfig controls diagnostic logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ObservabilityConfig controls telemetry export.
type ObservabilityConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	MetricsAddr  string  `mapstructure:"metrics_addr"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise depchain.yaml is searched in the working directory and ./config.
// A missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &cfg, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("ignore.imports", depchain.DefaultIgnoredImports)
	viperCfg.SetDefault("ignore.packages", depchain.DefaultIgnoredPackages)

	viperCfg.SetDefault("source.extensions", workspace.DefaultSourceExtensions)

	viperCfg.SetDefault("check.areas", DefaultAreas)
	viperCfg.SetDefault("check.concurrency", DefaultConcurrency)
	viperCfg.SetDefault("check.file_concurrency", DefaultFileConcurrency)

	viperCfg.SetDefault("cache.enabled", DefaultCacheEnabled)
	viperCfg.SetDefault("cache.directory", DefaultCacheDirectory())
	viperCfg.SetDefault("cache.max_entries", DefaultCacheMaxEntries)
	viperCfg.SetDefault("cache.max_size", DefaultCacheMaxSize)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("observability.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.metrics_addr", DefaultMetricsAddr)
	viperCfg.SetDefault("observability.environment", "")
	viperCfg.SetDefault("observability.sample_ratio", DefaultSampleRatio)
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Check.Concurrency < 0 {
		return fmt.Errorf("%w: check.concurrency=%d", ErrInvalidConcurrency, c.Check.Concurrency)
	}

	if c.Check.FileConcurrency < 0 {
		return fmt.Errorf("%w: check.file_concurrency=%d", ErrInvalidConcurrency, c.Check.FileConcurrency)
	}

	for _, ext := range c.Source.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
		}
	}

	for _, binding := range c.Source.Grammars {
		if !strings.HasPrefix(binding.Extension, ".") || strings.TrimSpace(binding.Grammar) == "" {
			return fmt.Errorf("%w: %q=%q", ErrInvalidGrammar, binding.Extension, binding.Grammar)
		}
	}

	_, err := c.Areas()
	if err != nil {
		return err
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if !slices.Contains(logFormats, strings.ToLower(c.Logging.Format)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	_, err = c.CacheMaxBytes()
	if err != nil {
		return err
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Observability.SampleRatio)
	}

	return nil
}

// Grammars returns the extension to grammar mapping for the parser host:
// the built-in JavaScript and TypeScript bindings overlaid with source.grammars.
func (c *Config) Grammars() map[string]string {
	overrides := make(map[string]string, len(c.Source.Grammars))
	for _, binding := range c.Source.Grammars {
		overrides[binding.Extension] = binding.Grammar
	}

	return syntax.MergeExtensions(overrides)
}

// Areas parses the configured area selectors.
func (c *Config) Areas() ([]depchain.Area, error) {
	return depchain.ParseAreas(c.Check.Areas)
}

// CacheMaxBytes parses cache.max_size. An empty value means unbounded.
func (c *Config) CacheMaxBytes() (uint64, error) {
	if strings.TrimSpace(c.Cache.MaxSize) == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(c.Cache.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidCacheSize, c.Cache.MaxSize, err)
	}

	return size, nil
}
