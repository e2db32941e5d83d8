// Package config loads interviewmesh settings from environment variables
// and an optional .env file via viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/interviewmesh/logging"
)

// Config holds the tunables of the interview core.
type Config struct {
	Provider Provider
	APIKey   string
	Model    string

	MaxRetries     int
	TimeoutSeconds int

	BreakerFailureThreshold int
	BreakerRecoverySeconds  int

	QuestionsPerTopicMin int
	QuestionsPerTopicMax int

	LogLevel string
}

// Provider selects the reasoning backend.
type Provider string

const (
	// ProviderOpenAI uses the OpenAI Chat Completions backend.
	ProviderOpenAI Provider = "openai"
	// ProviderAnthropic uses the Anthropic Messages backend.
	ProviderAnthropic Provider = "anthropic"
)

// Default returns the built-in defaults without touching the environment.
func Default() *Config {
	return &Config{
		Provider:                ProviderOpenAI,
		Model:                   "",
		MaxRetries:              3,
		TimeoutSeconds:          30,
		BreakerFailureThreshold: 5,
		BreakerRecoverySeconds:  60,
		QuestionsPerTopicMin:    2,
		QuestionsPerTopicMax:    4,
		LogLevel:                "INFO",
	}
}

// Load reads configuration from environment variables (and a local .env
// file when present), falling back to Default values.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("provider", string(def.Provider))
	v.SetDefault("api_key", "")
	v.SetDefault("model_name", def.Model)
	v.SetDefault("max_retries", def.MaxRetries)
	v.SetDefault("timeout_seconds", def.TimeoutSeconds)
	v.SetDefault("breaker_failure_threshold", def.BreakerFailureThreshold)
	v.SetDefault("breaker_recovery_seconds", def.BreakerRecoverySeconds)
	v.SetDefault("questions_per_topic_min", def.QuestionsPerTopicMin)
	v.SetDefault("questions_per_topic_max", def.QuestionsPerTopicMax)
	v.SetDefault("log_level", def.LogLevel)

	bindings := map[string]string{
		"provider":                  "REASONING_PROVIDER",
		"api_key":                   "REASONING_API_KEY",
		"model_name":                "MODEL_NAME",
		"max_retries":               "MAX_RETRIES",
		"timeout_seconds":           "TIMEOUT_SECONDS",
		"breaker_failure_threshold": "BREAKER_FAILURE_THRESHOLD",
		"breaker_recovery_seconds":  "BREAKER_RECOVERY_SECONDS",
		"questions_per_topic_min":   "QUESTIONS_PER_TOPIC_MIN",
		"questions_per_topic_max":   "QUESTIONS_PER_TOPIC_MAX",
		"log_level":                 "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Provider:                Provider(v.GetString("provider")),
		APIKey:                  v.GetString("api_key"),
		Model:                   v.GetString("model_name"),
		MaxRetries:              v.GetInt("max_retries"),
		TimeoutSeconds:          v.GetInt("timeout_seconds"),
		BreakerFailureThreshold: v.GetInt("breaker_failure_threshold"),
		BreakerRecoverySeconds:  v.GetInt("breaker_recovery_seconds"),
		QuestionsPerTopicMin:    v.GetInt("questions_per_topic_min"),
		QuestionsPerTopicMax:    v.GetInt("questions_per_topic_max"),
		LogLevel:                v.GetString("log_level"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks internal consistency. The API key is checked by backends,
// not here, so offline tests can load a config without credentials.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown reasoning provider %q", c.Provider)
	}
	if c.QuestionsPerTopicMin > c.QuestionsPerTopicMax {
		return fmt.Errorf("questions_per_topic_min (%d) cannot exceed questions_per_topic_max (%d)",
			c.QuestionsPerTopicMin, c.QuestionsPerTopicMax)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.BreakerFailureThreshold < 1 {
		return fmt.Errorf("breaker_failure_threshold must be at least 1, got %d", c.BreakerFailureThreshold)
	}
	return nil
}

// Timeout returns the per-call timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BreakerRecovery returns the breaker recovery timeout as a duration.
func (c *Config) BreakerRecovery() time.Duration {
	return time.Duration(c.BreakerRecoverySeconds) * time.Second
}

// LoggingLevel maps the configured level string onto logging.LogLevel.
func (c *Config) LoggingLevel() logging.LogLevel {
	return logging.ParseLevel(c.LogLevel)
}
