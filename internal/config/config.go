package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// RedisAddr enables live notification fan-out when set.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	TokenSecret string `env:"TOKEN_AUTH_SECRET,required"`

	ReviewWindowDays int `env:"REVIEW_WINDOW_DAYS" envDefault:"7"`
	ReviewQueueLimit int `env:"REVIEW_QUEUE_LIMIT" envDefault:"50"`
}

// Load reads an optional .env file and then the process environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}

	if cfg.ReviewWindowDays <= 0 {
		return nil, errors.Errorf("REVIEW_WINDOW_DAYS must be positive, got %d", cfg.ReviewWindowDays)
	}
	if cfg.ReviewQueueLimit <= 0 {
		return nil, errors.Errorf("REVIEW_QUEUE_LIMIT must be positive, got %d", cfg.ReviewQueueLimit)
	}

	return cfg, nil
}
