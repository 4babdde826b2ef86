// Package config loads service configuration from a file and the
// environment. Environment variables use the SALESANALYSIS_ prefix with
// dots replaced by underscores (e.g. SALESANALYSIS_GENERAL_LISTEN).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the chat analytics service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Databases DatabasesConfig `mapstructure:"databases"`
	Schema    SchemaConfig    `mapstructure:"schema"`
}

// GeneralConfig contains server-wide settings.
type GeneralConfig struct {
	Listen   string `mapstructure:"listen"`
	LogLevel string `mapstructure:"log_level"`
}

// ProvidersConfig groups reasoning-oracle providers.
type ProvidersConfig struct {
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig configures the completion provider. The API key may also come
// from OPENAI_API_KEY directly; it is required at call time, not at load.
type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	CompletionModel string        `mapstructure:"completion_model"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
}

// DatabasesConfig groups backing stores.
type DatabasesConfig struct {
	SQL   SQLConfig   `mapstructure:"sql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// SQLConfig points at the read-only analytical database.
type SQLConfig struct {
	Driver       string        `mapstructure:"driver"`
	URL          string        `mapstructure:"url"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	ConnMaxIdle  time.Duration `mapstructure:"conn_max_idle"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

func (c SQLConfig) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("databases.sql.url is required")
	}
	return nil
}

// RedisConfig enables the optional query-result cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Enabled reports whether the cache should be wired in.
func (c RedisConfig) Enabled() bool { return strings.TrimSpace(c.Addr) != "" }

// SchemaConfig optionally overrides the embedded schema description.
type SchemaConfig struct {
	File string `mapstructure:"file"`
}

// LoadConfig reads configuration from path (or the default search paths when
// empty) plus the environment, and applies defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("general.listen", ":4000")
	v.SetDefault("general.log_level", "info")
	v.SetDefault("providers.openai.completion_model", "gpt-4.1")
	v.SetDefault("providers.openai.timeout", 30*time.Second)
	v.SetDefault("providers.openai.max_retries", 2)
	v.SetDefault("databases.sql.driver", "postgres")
	v.SetDefault("databases.sql.max_open_conns", 10)
	v.SetDefault("databases.sql.conn_max_idle", 30*time.Second)
	v.SetDefault("databases.sql.query_timeout", 30*time.Second)
	v.SetDefault("databases.redis.ttl", time.Minute)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("SALESANALYSIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// with no explicit path a config file is optional; env + defaults suffice
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
