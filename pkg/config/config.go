package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// Config is the runtime configuration shared by the api, worker and migrate binaries.
// Values come from the environment, .env files or an optional config.yaml.
type Config struct {
	AppEnv          string        `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	HTTPAddr        string        `mapstructure:"HTTP_ADDR" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	DatabaseURL string `mapstructure:"DATABASE_URL" validate:"required,url|uri"`

	// Redis is optional for the api; without it background reports are disabled.
	RedisAddr     string `mapstructure:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	AsynqConcurrency int    `mapstructure:"ASYNQ_CONCURRENCY" validate:"gte=1,lte=1000"`
	ReportsDir       string `mapstructure:"REPORTS_DIR" validate:"required"`
	DigestCron       string `mapstructure:"DIGEST_CRON"`

	CORSOrigin     string  `mapstructure:"CORS_ORIGIN" validate:"required"`
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST" validate:"gte=1"`

	GoMaxProcs int `mapstructure:"GOMAXPROCS" validate:"gte=0,lte=4096"`
}

var (
	cfg      *Config
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// defaults doubles as the list of keys bound to the environment; a nil value
// binds the key without a default.
var defaults = map[string]any{
	"APP_ENV":           "development",
	"HTTP_ADDR":         "0.0.0.0:8080",
	"SHUTDOWN_TIMEOUT":  "15s",
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "json",
	"DATABASE_URL":      nil,
	"REDIS_ADDR":        nil,
	"REDIS_PASSWORD":    nil,
	"ASYNQ_CONCURRENCY": 10,
	"REPORTS_DIR":       "./reports",
	"DIGEST_CRON":       "@daily",
	"CORS_ORIGIN":       "*",
	"RATE_LIMIT_RPS":    10,
	"RATE_LIMIT_BURST":  20,
	"GOMAXPROCS":        0,
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	for key, def := range defaults {
		if def != nil {
			v.SetDefault(key, def)
		}
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads .env files, the optional config file and the environment, then
// validates the result and stores it for Get.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var c Config
	// viper's default decode hooks turn "15s" into a time.Duration.
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if c.GoMaxProcs > 0 {
		runtime.GOMAXPROCS(c.GoMaxProcs)
	}

	cfg = &c
	return cfg, nil
}

// MustLoad loads configuration or exits the process on failure.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}

// Get returns the loaded configuration. Panics if not loaded.
func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call config.Load or config.MustLoad first")
	}
	return cfg
}

// IsDev reports whether verbose diagnostics (SQL logging) should be enabled.
func (c *Config) IsDev() bool {
	return c.AppEnv == "development" || c.AppEnv == "test"
}

func (c *Config) HasRedis() bool { return c.RedisAddr != "" }

func (c *Config) RedisOptions() *redis.Options {
	return &redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword}
}

func (c *Config) AsynqRedis() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.RedisAddr, Password: c.RedisPassword}
}
