// Package config loads and validates the application configuration from
// defaults, an optional config.yaml, and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration marks fatal configuration failures; the binary exits 1.
var ErrConfiguration = errors.New("configuration error")

// Default values for optional configuration parameters.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultStoreURI = "coinpulse.db"

	DefaultAnalyzerProvider    = "openai"
	DefaultAnalyzerModel       = "gpt-3.5-turbo"
	DefaultAnalyzerTimeout     = 30 * time.Second
	DefaultAnalyzerTemperature = 0.3
	DefaultAnalyzerMaxTokens   = 500
	DefaultAnalyzerRateRPS     = 1.0

	DefaultMaxLaunchRetries = 5
	DefaultLaunchRetryBase  = 5 * time.Second

	DefaultHousekeepingInterval = time.Minute
)

// AnalyzerConfig configures the LLM analyzer. An empty APIKey leaves the
// analyzer permanently unavailable; ingestion still runs with degraded
// analyses.
type AnalyzerConfig struct {
	Provider    string        `mapstructure:"provider"    validate:"oneof=openai gemini"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"       validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxTokens   int           `mapstructure:"max_tokens"  validate:"min=1,max=10000"`
	RateRPS     float64       `mapstructure:"rate_rps"    validate:"min=0"`
}

// TelegramConfig configures the bot adapter.
type TelegramConfig struct {
	Token            string        `mapstructure:"token"              validate:"required"`
	MaxLaunchRetries int           `mapstructure:"max_launch_retries" validate:"min=1,max=20"`
	LaunchRetryBase  time.Duration `mapstructure:"launch_retry_base"  validate:"min=1s"`
}

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	URI string `mapstructure:"uri" validate:"required"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// TasksConfig configures the periodic housekeeping jobs.
type TasksConfig struct {
	HousekeepingInterval time.Duration `mapstructure:"housekeeping_interval" validate:"min=10s"`
}

// Config is the full application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Tasks    TasksConfig    `mapstructure:"tasks"`
}

// Load reads configuration from, in precedence order: environment
// variables, an optional config.yaml in the working directory, and
// defaults. The result is validated before it is returned.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: read config file: %v", ErrConfiguration, err)
		}
		// No config file is fine, env and defaults cover everything.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config: %v", ErrConfiguration, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("store.uri", DefaultStoreURI)

	v.SetDefault("analyzer.provider", DefaultAnalyzerProvider)
	v.SetDefault("analyzer.model", DefaultAnalyzerModel)
	v.SetDefault("analyzer.timeout", DefaultAnalyzerTimeout)
	v.SetDefault("analyzer.temperature", DefaultAnalyzerTemperature)
	v.SetDefault("analyzer.max_tokens", DefaultAnalyzerMaxTokens)
	v.SetDefault("analyzer.rate_rps", DefaultAnalyzerRateRPS)

	v.SetDefault("telegram.max_launch_retries", DefaultMaxLaunchRetries)
	v.SetDefault("telegram.launch_retry_base", DefaultLaunchRetryBase)

	v.SetDefault("tasks.housekeeping_interval", DefaultHousekeepingInterval)
}

// bindEnv maps the documented environment variables onto config keys.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("analyzer.api_key", "ANALYZER_API_KEY")
	_ = v.BindEnv("analyzer.model", "ANALYZER_MODEL")
	_ = v.BindEnv("analyzer.provider", "ANALYZER_PROVIDER")
	_ = v.BindEnv("store.uri", "STORE_URI")
	_ = v.BindEnv("telegram.token", "BOT_TOKEN")
	_ = v.BindEnv("telegram.max_launch_retries", "MAX_LAUNCH_RETRIES")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}
