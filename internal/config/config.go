// Package config содержит логику чтения конфигурации платформы лояльности.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config содержит параметры конфигурации платформы лояльности.
type Config struct {
	RunAddress     string   `env:"RUN_ADDRESS"`
	DatabaseURI    string   `env:"DATABASE_URI"`
	TokenSecret    string   `env:"TOKEN_SECRET"`
	AdminKey       string   `env:"ADMIN_KEY"`
	RedisAddr      string   `env:"REDIS_ADDR"`
	KafkaBrokers   []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic     string   `env:"KAFKA_TOPIC"`
	JaegerEndpoint string   `env:"JAEGER_ENDPOINT"`
	RateLimit      float64  `env:"RATE_LIMIT"`
	Env            string   `env:"ENV"`
}

const (
	defaultRunAddress = "localhost:8080"
	defaultKafkaTopic = "loyalty-events"
	defaultRateLimit  = 100
	defaultEnv        = "production"
)

// IsDevelopment сообщает, запущен ли сервис в режиме разработки.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения (в том числе из файла .env) имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	fromEnv := &Config{}
	if err := env.Parse(fromEnv); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{}
	var brokers string

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.TokenSecret, "s", "", "secret for signing tenant tokens")
	flag.StringVar(&cfg.AdminKey, "k", "", "admin key for tenant registration")
	flag.StringVar(&cfg.RedisAddr, "redis", "", "redis address for tenant cache")
	flag.StringVar(&brokers, "kafka", "", "comma-separated kafka brokers for domain events")
	flag.StringVar(&cfg.KafkaTopic, "topic", defaultKafkaTopic, "kafka topic for domain events")
	flag.StringVar(&cfg.JaegerEndpoint, "jaeger", "", "jaeger collector endpoint")
	flag.Float64Var(&cfg.RateLimit, "rps", defaultRateLimit, "per-tenant request rate limit, 0 disables")
	flag.StringVar(&cfg.Env, "env", defaultEnv, "environment: development or production")

	flag.Parse()

	cfg.KafkaBrokers = splitList(brokers)

	if fromEnv.RunAddress != "" {
		cfg.RunAddress = fromEnv.RunAddress
	}
	if fromEnv.DatabaseURI != "" {
		cfg.DatabaseURI = fromEnv.DatabaseURI
	}
	if fromEnv.TokenSecret != "" {
		cfg.TokenSecret = fromEnv.TokenSecret
	}
	if fromEnv.AdminKey != "" {
		cfg.AdminKey = fromEnv.AdminKey
	}
	if fromEnv.RedisAddr != "" {
		cfg.RedisAddr = fromEnv.RedisAddr
	}
	if len(fromEnv.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = splitList(strings.Join(fromEnv.KafkaBrokers, ","))
	}
	if fromEnv.KafkaTopic != "" {
		cfg.KafkaTopic = fromEnv.KafkaTopic
	}
	if fromEnv.JaegerEndpoint != "" {
		cfg.JaegerEndpoint = fromEnv.JaegerEndpoint
	}
	if fromEnv.RateLimit != 0 {
		cfg.RateLimit = fromEnv.RateLimit
	}
	if fromEnv.Env != "" {
		cfg.Env = fromEnv.Env
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = defaultKafkaTopic
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
