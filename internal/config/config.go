package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Backends  []BackendConfig `mapstructure:"backends"`
}

type ServerConfig struct {
	Port    string   `mapstructure:"port"`
	Env     string   `mapstructure:"env"`
	APIKeys []string `mapstructure:"api_keys"`
}

type StoreConfig struct {
	DSN     string `mapstructure:"dsn"`
	Enabled bool   `mapstructure:"enabled"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// EngineConfig carries the orchestration knobs.
type EngineConfig struct {
	// Total attempts allowed per routing call
	AttemptCap int `mapstructure:"attempt_cap"`

	// EMA decay factor for the performance tracker, in (0,1]
	Alpha float64 `mapstructure:"alpha"`

	// Scoring weights
	SuccessWeight   float64 `mapstructure:"success_weight"`
	SpeedWeight     float64 `mapstructure:"speed_weight"`
	PreferenceBonus float64 `mapstructure:"preference_bonus"`

	// Admission budget
	Ceiling          int64 `mapstructure:"ceiling"`
	CostDivisorBytes int64 `mapstructure:"cost_divisor_bytes"`

	// Per-attempt timeouts in milliseconds
	DefaultTimeoutMS    int64            `mapstructure:"default_timeout_ms"`
	CapabilityTimeoutMS map[string]int64 `mapstructure:"capability_timeout_ms"`
}

// BackendConfig describes one backend registered at startup.
type BackendConfig struct {
	ID           string   `mapstructure:"id" validate:"required"`
	Provider     string   `mapstructure:"provider" validate:"required"`
	Type         string   `mapstructure:"type" validate:"required,oneof=http static"`
	BaseURL      string   `mapstructure:"base_url" validate:"required_if=Type http"`
	APIKey       string   `mapstructure:"api_key"`
	Model        string   `mapstructure:"model"`
	Capabilities []string `mapstructure:"capabilities" validate:"required,min=1"`

	MaxPayloadBytes int64 `mapstructure:"max_payload_bytes"`
	MaxConcurrency  int   `mapstructure:"max_concurrency"`
	Enabled         bool  `mapstructure:"enabled"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./internal/config")

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	}

	// Default Values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.dsn", "file:orchestrator.db?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("engine.attempt_cap", 3)
	v.SetDefault("engine.alpha", 0.1)
	v.SetDefault("engine.success_weight", 0.6)
	v.SetDefault("engine.speed_weight", 0.4)
	v.SetDefault("engine.preference_bonus", 0.15)
	v.SetDefault("engine.ceiling", 32)
	v.SetDefault("engine.cost_divisor_bytes", 262144)
	v.SetDefault("engine.default_timeout_ms", 30000)

	// Environment Variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// Resolve API Keys
	for i, b := range cfg.Backends {
		if strings.HasPrefix(b.APIKey, "ENV:") {
			envVar := strings.TrimPrefix(b.APIKey, "ENV:")
			// Check process environment first (explicit override)
			val := os.Getenv(envVar)
			if val == "" {
				// Then check viper (which might have it from other sources)
				val = v.GetString(envVar)
			}
			cfg.Backends[i].APIKey = val
		}
	}

	return &cfg, nil
}
