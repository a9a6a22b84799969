package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=billing port=5432 sslmode=disable"

type Config struct {
	HTTPPort      string
	DatabaseDSN   string
	JWTSecret     string
	CORSOrigins   string
	LogLevel      string
	RedisAddr     string
	RedisPassword string

	// StockAllowNegative keeps the permissive behaviour: movements may drive
	// stock_quantity below zero. When false an outgoing movement that would
	// cross zero fails with apperr.ErrInsufficientStock.
	StockAllowNegative bool
	// InvoiceDeductsStock makes invoices move stock (sales-out) like POS sales.
	InvoiceDeductsStock bool
	NumberLockTTL       time.Duration
}

func Load() *Config {
	// .env is optional; real deployments pass plain environment variables
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:         getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		CORSOrigins:         getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		StockAllowNegative:  getBool("STOCK_ALLOW_NEGATIVE", true),
		InvoiceDeductsStock: getBool("INVOICE_DEDUCTS_STOCK", true),
		NumberLockTTL:       getDuration("NUMBER_LOCK_TTL", 5*time.Second),
	}

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		logrus.Fatal("JWT_SECRET must be at least 32 characters")
	}
	if cfg.DatabaseDSN == defaultDSN {
		logrus.Warn("DATABASE_DSN is using the local default")
	}
	if cfg.RedisAddr == "" {
		logrus.Warn("REDIS_ADDR is empty, document number allocation runs without a distributed lock")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid boolean %q, using default %v", v, def)
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid duration %q, using default %s", v, def)
		return def
	}
	return d
}
