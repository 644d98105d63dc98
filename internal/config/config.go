package config

import (
	"fmt"
	"os"

	"github.com/nikolayk812/gomarketplace-cart/internal/repository"
	"golang.org/x/text/currency"
)

const (
	BackendBolt     = "bolt"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Backend string

	BoltPath      string
	RedisAddr     string
	RedisPassword string
	PostgresURL   string

	StorageKey string
	Currency   string
	LogLevel   string
}

func Load() Config {
	return Config{
		Backend:       getEnv("CART_BACKEND", BackendBolt),
		BoltPath:      getEnv("CART_BOLT_PATH", "cart.db"),
		RedisAddr:     getEnv("CART_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("CART_REDIS_PASSWORD", ""),
		PostgresURL:   getEnv("CART_POSTGRES_URL", ""),
		StorageKey:    getEnv("CART_STORAGE_KEY", repository.DefaultKey),
		Currency:      getEnv("CART_CURRENCY", "USD"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("bolt path is empty")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis addr is empty")
		}
	case BackendPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("postgres url is empty")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("backend[%s] is not supported", c.Backend)
	}

	if c.StorageKey == "" {
		return fmt.Errorf("storage key is empty")
	}

	if _, err := c.CurrencyUnit(); err != nil {
		return err
	}

	return nil
}

func (c Config) CurrencyUnit() (currency.Unit, error) {
	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency[%s] is not valid: %w", c.Currency, err)
	}

	return unit, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
