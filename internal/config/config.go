package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	DeepSeek  DeepSeekConfig  `yaml:"deepseek" mapstructure:"deepseek"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Images    ImagesConfig    `yaml:"images" mapstructure:"images"`
	Assemble  AssembleConfig  `yaml:"assemble" mapstructure:"assemble"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the data directory holding raw_data/ and .env.
type DataConfig struct {
	Root string `yaml:"root" mapstructure:"root"`
}

// LLMConfig selects the text-generation provider and its call discipline.
type LLMConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MinIntervalMs int    `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	MaxTokens     int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// Timeout returns the per-call wall-clock timeout.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// MinInterval returns the minimum spacing between successive requests.
func (c LLMConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMs) * time.Millisecond
}

// DeepSeekConfig holds DeepSeek API settings.
type DeepSeekConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ScrapeConfig configures profile and catalog page acquisition.
type ScrapeConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	WaitSecs    int    `yaml:"wait_secs" mapstructure:"wait_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// PipelineConfig configures stage behavior.
type PipelineConfig struct {
	Seed        uint64 `yaml:"seed" mapstructure:"seed"`
	AllowPrices bool   `yaml:"allow_prices" mapstructure:"allow_prices"`
}

// ImagesConfig configures image acquisition and categorisation.
type ImagesConfig struct {
	CatalogURLs []string `yaml:"catalog_urls" mapstructure:"catalog_urls"`
	BatchSize   int      `yaml:"batch_size" mapstructure:"batch_size"`
}

// AssembleConfig configures the final payload assembly.
type AssembleConfig struct {
	TemplatePath string `yaml:"template_path" mapstructure:"template_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// LLMKey returns the API key of the configured provider, or "" when LLM
// calls are disabled.
func (c *Config) LLMKey() string {
	switch strings.ToLower(c.LLM.Provider) {
	case "anthropic":
		return c.Anthropic.Key
	default:
		return c.DeepSeek.Key
	}
}

// Load reads configuration from file, the data directory's .env, and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ROOFSITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider keys are conventionally unprefixed in .env files.
	_ = v.BindEnv("deepseek.key", "ROOFSITE_DEEPSEEK_KEY", "DEEPSEEK_API_KEY")
	_ = v.BindEnv("anthropic.key", "ROOFSITE_ANTHROPIC_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("google.key", "ROOFSITE_GOOGLE_KEY", "GOOGLE_MAPS_API_KEY")

	// Defaults
	v.SetDefault("data.root", ".")
	v.SetDefault("llm.provider", "deepseek")
	v.SetDefault("llm.timeout_secs", 60)
	v.SetDefault("llm.min_interval_ms", 1000)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("deepseek.base_url", "https://api.deepseek.com")
	v.SetDefault("deepseek.model", "deepseek-chat")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("scrape.timeout_secs", 60)
	v.SetDefault("scrape.wait_secs", 20)
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	v.SetDefault("pipeline.seed", 0)
	v.SetDefault("pipeline.allow_prices", false)
	v.SetDefault("images.catalog_urls", []string{})
	v.SetDefault("images.batch_size", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	if err := loadDotEnv(v.GetString("data.root")); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// loadDotEnv exports the data directory's .env into the process environment.
// Variables already set in the environment win.
func loadDotEnv(root string) error {
	path := filepath.Join(root, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return eris.Wrapf(err, "config: read %s", path)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.DisableStacktrace = true
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
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
