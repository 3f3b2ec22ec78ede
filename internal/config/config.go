// Package config loads and validates service configuration.
//
// Values are layered by viper, highest precedence first: bound command-line
// flags, environment variables, an optional YAML or JSON file, defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Port       int              `mapstructure:"port" validate:"min=1,max=65535"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Search     SearchConfig     `mapstructure:"search"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Auth       AuthConfig       `mapstructure:"auth"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Log        LogConfig        `mapstructure:"log"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	URL    string `mapstructure:"url"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// SearchConfig bounds paging of the ranked search.
type SearchConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size" validate:"min=1,ltefield=MaxPageSize"`
	MaxPageSize     int `mapstructure:"max_page_size" validate:"min=1"`
}

// CacheConfig sets per-endpoint TTLs for the response cache.
type CacheConfig struct {
	FiltersTTL      time.Duration `mapstructure:"filters_ttl" validate:"min=0"`
	StatsTTL        time.Duration `mapstructure:"stats_ttl" validate:"min=0"`
	PostingTTL      time.Duration `mapstructure:"posting_ttl" validate:"min=0"`
	MaxEntries      int           `mapstructure:"max_entries" validate:"min=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"min=0"`
}

// AuthConfig enables the admin endpoints when JWTSecret is set.
type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	TokenHours int    `mapstructure:"token_hours" validate:"min=1"`
}

type LLMConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type ExtractionConfig struct {
	Schedule  string `mapstructure:"schedule"`
	BatchSize int    `mapstructure:"batch_size" validate:"min=1"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// envBindings maps config keys to the environment variables that feed them.
var envBindings = map[string]string{
	"port":                  "PORT",
	"database.driver":       "DATABASE_DRIVER",
	"database.url":          "DATABASE_URL",
	"redis.url":             "REDIS_URL",
	"search.max_page_size":  "MAX_PAGE_SIZE",
	"auth.jwt_secret":       "JWT_SECRET",
	"auth.token_hours":      "JWT_EXPIRATION_HOURS",
	"llm.api_key":           "GEMINI_API_KEY",
	"extraction.schedule":   "EXTRACTION_SCHEDULE",
	"extraction.batch_size": "EXTRACTION_BATCH_SIZE",
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("search.default_page_size", 20)
	v.SetDefault("search.max_page_size", 100)
	v.SetDefault("cache.filters_ttl", 5*time.Minute)
	v.SetDefault("cache.stats_ttl", time.Minute)
	v.SetDefault("cache.posting_ttl", 10*time.Minute)
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.cleanup_interval", 5*time.Minute)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_hours", 24)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("extraction.schedule", "@every 30m")
	v.SetDefault("extraction.batch_size", 25)
	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// Load reads configuration into a validated Config. An empty path skips the
// file layer. Flags must already be bound on v by the caller.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// AdminEnabled reports whether admin endpoints can authenticate requests.
func (c *Config) AdminEnabled() bool {
	return strings.TrimSpace(c.Auth.JWTSecret) != ""
}

// JWT returns the token settings derived from the auth section.
func (c *Config) JWT() (*JWTConfig, error) {
	return NewJWTConfig(c.Auth.JWTSecret, c.Auth.TokenHours)
}
