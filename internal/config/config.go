// Package config loads service settings from SPRINGBUCKS_* environment
// variables. A .env file in the working directory is loaded first when
// present.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"golang.org/x/text/currency"
)

const envPrefix = "SPRINGBUCKS_"

type Config struct {
	ServiceName string `koanf:"service_name" validate:"required"`
	PostgresURL string `koanf:"postgres_url" validate:"required_unless=ServiceName audit"`
	// Currency is the single ISO 4217 unit every stored price is in.
	Currency     string     `koanf:"currency" validate:"required,iso4217"`
	KafkaBrokers []string   `koanf:"kafka_brokers" validate:"omitempty,dive,hostname_port"`
	Port         string     `koanf:"port" validate:"required,numeric"`
	OTelEndpoint string     `koanf:"otel_endpoint" validate:"omitempty,hostname_port"`
	AutoMigrate  bool       `koanf:"auto_migrate"`
	LogLevel     slog.Level `koanf:"log_level"`
}

func defaults(serviceName string) Config {
	return Config{
		ServiceName: serviceName,
		Currency:    "TWD",
		Port:        "8080",
		LogLevel:    slog.LevelInfo,
	}
}

// Load reads the environment on top of the defaults and validates the result.
func Load(serviceName string) (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if key == "kafka_brokers" {
			return key, splitList(value)
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := defaults(serviceName)
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) CurrencyUnit() currency.Unit {
	// validated as iso4217 in Load
	return currency.MustParseISO(c.Currency)
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
