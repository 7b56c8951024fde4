package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Wikipedia  WikipediaConfig  `yaml:"wikipedia" mapstructure:"wikipedia"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit" mapstructure:"ratelimit"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Taxonomy   TaxonomyConfig   `yaml:"taxonomy" mapstructure:"taxonomy"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ClassifierConfig selects the LLM backend for the semantic classifier.
type ClassifierConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OpenAIConfig holds settings for any OpenAI-compatible chat endpoint.
type OpenAIConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// WikipediaConfig configures the fact source.
type WikipediaConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// RateLimitConfig bounds calls to external collaborators.
type RateLimitConfig struct {
	ClassifierPerMinute int `yaml:"classifier_per_minute" mapstructure:"classifier_per_minute"`
	WikipediaPerMinute  int `yaml:"wikipedia_per_minute" mapstructure:"wikipedia_per_minute"`
	MaxInFlight         int `yaml:"max_in_flight" mapstructure:"max_in_flight"`
}

// RetryConfig configures backoff for transient failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CacheConfig configures the in-memory verdict layer.
type CacheConfig struct {
	MemoryTTLMinutes int `yaml:"memory_ttl_minutes" mapstructure:"memory_ttl_minutes"`
}

// PipelineConfig configures stage execution.
type PipelineConfig struct {
	Concurrency     int  `yaml:"concurrency" mapstructure:"concurrency"`
	ContextExcerpts int  `yaml:"context_excerpts" mapstructure:"context_excerpts"`
	ContextChars    int  `yaml:"context_chars" mapstructure:"context_chars"`
	Profiles        bool `yaml:"profiles" mapstructure:"profiles"`
}

// ExportConfig configures table output.
type ExportConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TaxonomyConfig points at an optional sector/party rules file.
type TaxonomyConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("classifier.provider", "anthropic")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2000)
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "deepseek-chat")
	v.SetDefault("openai.max_tokens", 2000)
	v.SetDefault("wikipedia.enabled", true)
	v.SetDefault("wikipedia.base_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("wikipedia.user_agent", "roster-graph/1.0 (entity resolution)")
	v.SetDefault("ratelimit.classifier_per_minute", 50)
	v.SetDefault("ratelimit.wikipedia_per_minute", 100)
	v.SetDefault("ratelimit.max_in_flight", 4)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 1000)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "roster-graph.db")
	v.SetDefault("cache.memory_ttl_minutes", 60)
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.context_excerpts", 3)
	v.SetDefault("pipeline.context_chars", 500)
	v.SetDefault("pipeline.profiles", true)
	v.SetDefault("export.dir", "output")
	v.SetDefault("export.format", "csv")
	v.SetDefault("taxonomy.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is "run" for commands
// that call the classifier, anything else checks only the shared settings.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	switch c.Export.Format {
	case "csv", "xlsx":
	default:
		problems = append(problems, fmt.Sprintf("export.format %q must be csv or xlsx", c.Export.Format))
	}
	if c.Pipeline.Concurrency < 1 {
		problems = append(problems, "pipeline.concurrency must be at least 1")
	}

	if mode == "run" {
		switch c.Classifier.Provider {
		case "anthropic":
			if c.Anthropic.Key == "" {
				problems = append(problems, "anthropic.key is required")
			}
		case "openai":
			if c.OpenAI.Key == "" {
				problems = append(problems, "openai.key is required")
			}
		default:
			problems = append(problems, fmt.Sprintf("classifier.provider %q must be anthropic or openai", c.Classifier.Provider))
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
