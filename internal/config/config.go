// Package config loads the process configuration from the environment,
// with defaults suitable for local development.
package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	// HTTP
	Addr string

	// Storage
	MongoURI       string
	MongoDatabase  string
	RedisAddr      string
	PaymentLogPath string

	// Card processor (Stripe)
	StripeSecretKey     string
	StripeWebhookSecret string

	// Marketplace processor (PayPal)
	PayPalClientID  string
	PayPalSecret    string
	PayPalAPIBase   string
	PayPalWebhookID string

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	// Telemetry
	TracingEnabled bool
}

// Load reads the configuration. Secrets have no defaults; missing required
// values fail startup rather than surfacing later as gateway errors.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:                getEnv("ADDR", ":8080"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:       getEnv("MONGO_DATABASE", "storefront"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		PaymentLogPath:      getEnv("PAYMENT_LOG_PATH", "payment-log.db"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PayPalClientID:      os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalSecret:        os.Getenv("PAYPAL_SECRET"),
		PayPalAPIBase:       getEnv("PAYPAL_API_BASE", "https://api-m.sandbox.paypal.com"),
		PayPalWebhookID:     os.Getenv("PAYPAL_WEBHOOK_ID"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		TracingEnabled:      getEnv("TRACING_ENABLED", "true") == "true",
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid JWT_TTL: %w", err)
	}
	cfg.JWTTTL = ttl

	for name, value := range map[string]string{
		"STRIPE_SECRET_KEY":     cfg.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": cfg.StripeWebhookSecret,
		"PAYPAL_CLIENT_ID":      cfg.PayPalClientID,
		"PAYPAL_SECRET":         cfg.PayPalSecret,
		"PAYPAL_WEBHOOK_ID":     cfg.PayPalWebhookID,
		"JWT_SECRET":            cfg.JWTSecret,
	} {
		if value == "" {
			return nil, fmt.Errorf("config: %s is required", name)
		}
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
