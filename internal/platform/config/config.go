package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from its environment.
type Config struct {
	Addr          string
	JWTSigningKey string

	// PostgresURL selects the PostgreSQL-backed ledger and catalog when set;
	// empty means in-memory stores (dev and tests).
	PostgresURL string

	// RedisURL selects the Redis rate-limit store when set; empty falls back
	// to the in-process limiter.
	RedisURL string

	// KafkaBrokers selects the Kafka notification publisher when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Rate limit applied per user to registration mutations.
	RateLimit       int
	RateLimitWindow time.Duration

	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:            getenv("PULSEFIT_ADDR", ":8080"),
		JWTSigningKey:   getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresURL:     os.Getenv("POSTGRES_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaTopic:      getenv("KAFKA_TOPIC", "pulsefit.registrations"),
		RateLimit:       getint("RATE_LIMIT", 30),
		RateLimitWindow: getduration("RATE_LIMIT_WINDOW", time.Minute),
		ShutdownTimeout: getduration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
