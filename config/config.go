package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the application's configuration
type Config struct {
	WebPort                 int           `mapstructure:"WEB_PORT"`
	LogLevel                string        `mapstructure:"LOG_LEVEL"`
	LLMProvider             string        `mapstructure:"LLM_PROVIDER"`
	MainLLMHost             string        `mapstructure:"MAIN_LLM_HOST"`
	LLMModel                string        `mapstructure:"LLM_MODEL"`
	LLMAPIKey               string        `mapstructure:"LLM_API_KEY"`
	GoogleAPIKey            string        `mapstructure:"GOOGLE_API_KEY"`
	LLMRequestTimeout       time.Duration `mapstructure:"LLM_REQUEST_TIMEOUT"`
	MaxRetries              int           `mapstructure:"MAX_RETRIES"`
	RetryDelaySeconds       time.Duration `mapstructure:"RETRY_DELAY_SECONDS"`
	HistoryWindow           int           `mapstructure:"HISTORY_WINDOW"`
	HistoryPath             string        `mapstructure:"HISTORY_PATH"`
	DataDir                 string        `mapstructure:"DATA_DIR"`
	DatasetDSN              string        `mapstructure:"DATASET_DSN"`
	DashboardCacheTTL       time.Duration `mapstructure:"DASHBOARD_CACHE_TTL"`
	SummaryCacheSize        int           `mapstructure:"SUMMARY_CACHE_SIZE"`
	SummaryMaxWords         int           `mapstructure:"SUMMARY_MAX_WORDS"`
	RateLimitMessagesPerMin int           `mapstructure:"RATE_LIMIT_MESSAGES_PER_MIN"`
	RateLimitFilesPerHour   int           `mapstructure:"RATE_LIMIT_FILES_PER_HOUR"`
	RateLimitBurstSize      int           `mapstructure:"RATE_LIMIT_BURST_SIZE"`
	MaxUploadMB             int64         `mapstructure:"MAX_UPLOAD_MB"`
}

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

func Load(logger *zap.Logger) *Config {
	var config Config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")        // For running locally
	viper.AddConfigPath("../")      // For running from docker subdir
	viper.AddConfigPath("./config") // Common config folder
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
			os.Exit(1)
		}
	}

	config.normalize()
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("WEB_PORT", 8000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LLM_PROVIDER", ProviderOpenAI)
	v.SetDefault("MAIN_LLM_HOST", "http://localhost:8080")
	v.SetDefault("LLM_MODEL", "gemini-1.5-flash")
	v.SetDefault("LLM_API_KEY", "")
	v.SetDefault("GOOGLE_API_KEY", "")
	v.SetDefault("LLM_REQUEST_TIMEOUT", 60)
	v.SetDefault("MAX_RETRIES", 1)
	v.SetDefault("RETRY_DELAY_SECONDS", 2)
	v.SetDefault("HISTORY_WINDOW", 10)
	v.SetDefault("HISTORY_PATH", "")
	v.SetDefault("DATA_DIR", "temp_storage")
	v.SetDefault("DATASET_DSN", "")
	v.SetDefault("DASHBOARD_CACHE_TTL", 300)
	v.SetDefault("SUMMARY_CACHE_SIZE", 16)
	v.SetDefault("SUMMARY_MAX_WORDS", 400)
	v.SetDefault("RATE_LIMIT_MESSAGES_PER_MIN", 20)
	v.SetDefault("RATE_LIMIT_FILES_PER_HOUR", 10)
	v.SetDefault("RATE_LIMIT_BURST_SIZE", 5)
	v.SetDefault("MAX_UPLOAD_MB", 20)
}

// normalize converts second counts into durations and repairs values that
// would otherwise disable a component.
func (c *Config) normalize() {
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	if c.LLMProvider == "" {
		c.LLMProvider = ProviderOpenAI
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 1
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 10
	}
	if c.SummaryCacheSize <= 0 {
		c.SummaryCacheSize = 16
	}
	if c.DataDir == "" {
		c.DataDir = "temp_storage"
	}

	// Convert seconds to proper time.Duration
	c.LLMRequestTimeout = c.LLMRequestTimeout * time.Second
	c.RetryDelaySeconds = c.RetryDelaySeconds * time.Second
	c.DashboardCacheTTL = c.DashboardCacheTTL * time.Second
}

// Default returns a configuration populated with the built-in defaults only.
// Used by the CLI report command and by tests.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("decode default config: %v", err))
	}
	config.normalize()
	return &config
}
