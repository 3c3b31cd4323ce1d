/*
Package config loads process configuration.

SOURCES (highest precedence first):
  1. Environment variables
  2. .env in the working directory (loaded into the environment if present)
  3. config.yaml in "." or "./config" (optional)
  4. Defaults below

ADMIN_IDENTITY is the only key without a default.
*/
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	Env      string `mapstructure:"ENV" validate:"oneof=development production test"`
	Port     string `mapstructure:"PORT" validate:"required,numeric"`
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`

	// AdminIdentity is the administrator on first start. Later starts use the
	// persisted admin if the store keeps one.
	AdminIdentity string `mapstructure:"ADMIN_IDENTITY" validate:"required,max=256"`

	StoreDriver string `mapstructure:"STORE_DRIVER" validate:"oneof=memory sqlite redis"`
	SQLitePath  string `mapstructure:"SQLITE_PATH" validate:"required_if=StoreDriver sqlite"`

	// Redis configuration.
	RedisAddr     string        `mapstructure:"REDIS_ADDR" validate:"required_if=StoreDriver redis"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB" validate:"min=0"`
	RedisPrefix   string        `mapstructure:"REDIS_PREFIX"`
	RedisLockTTL  time.Duration `mapstructure:"REDIS_LOCK_TTL" validate:"gt=0"`
	RedisLockWait time.Duration `mapstructure:"REDIS_LOCK_WAIT" validate:"gt=0"`

	ReallocationPolicy     string `mapstructure:"REALLOCATION_POLICY" validate:"oneof=preserve reset"`
	RequireChannelOperator bool   `mapstructure:"REQUIRE_CHANNEL_OPERATOR"`

	// RateLimitPerMin is per client IP. 0 disables limiting.
	RateLimitPerMin    int      `mapstructure:"RATE_LIMIT_PER_MIN" validate:"min=0"`
	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// Load reads and validates the configuration.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)

	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("ADMIN_IDENTITY", "")
	v.SetDefault("STORE_DRIVER", "sqlite")
	v.SetDefault("SQLITE_PATH", "./data/inventory.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "inventory:")
	v.SetDefault("REDIS_LOCK_TTL", "30s")
	v.SetDefault("REDIS_LOCK_WAIT", "5s")
	v.SetDefault("REALLOCATION_POLICY", "preserve")
	v.SetDefault("REQUIRE_CHANNEL_OPERATOR", false)
	v.SetDefault("RATE_LIMIT_PER_MIN", 600)
	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid key by its environment name.
func (c Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid config: %s fails %q", envName(fe.StructField()), fe.Tag())
	}
	return fmt.Errorf("invalid config: %w", err)
}

// IsProduction reports whether the process runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

var envNames = map[string]string{
	"Env":                    "ENV",
	"Port":                   "PORT",
	"LogLevel":               "LOG_LEVEL",
	"AdminIdentity":          "ADMIN_IDENTITY",
	"StoreDriver":            "STORE_DRIVER",
	"SQLitePath":             "SQLITE_PATH",
	"RedisAddr":              "REDIS_ADDR",
	"RedisDB":                "REDIS_DB",
	"RedisLockTTL":           "REDIS_LOCK_TTL",
	"RedisLockWait":          "REDIS_LOCK_WAIT",
	"ReallocationPolicy":     "REALLOCATION_POLICY",
	"RateLimitPerMin":        "RATE_LIMIT_PER_MIN",
	"CORSAllowedOrigins":     "CORS_ALLOWED_ORIGINS",
	"RequireChannelOperator": "REQUIRE_CHANNEL_OPERATOR",
}

func envName(field string) string {
	if name, ok := envNames[field]; ok {
		return name
	}
	return field
}
