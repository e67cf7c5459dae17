// Package config builds runtime configuration from the environment so main
// stays lean. A .env file is honored in development; real environments set
// variables directly.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything the server process needs to start.
type Config struct {
	Addr string

	// DatabaseURL selects PostgreSQL; when empty the server runs entirely
	// in memory, which is fine for development and demos.
	DatabaseURL string

	// RedisURL enables the shared live participant counter.
	RedisURL string

	// KafkaBrokers enables the audit outbox relay. Requires DatabaseURL.
	KafkaBrokers []string
	AuditTopic   string

	SweepInterval   time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment, after loading a .env file
// if one exists.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:            getEnv("TOMBOLA_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("TOMBOLA_DATABASE_URL"),
		RedisURL:        os.Getenv("TOMBOLA_REDIS_URL"),
		KafkaBrokers:    splitList(os.Getenv("TOMBOLA_KAFKA_BROKERS")),
		AuditTopic:      getEnv("TOMBOLA_AUDIT_TOPIC", "tombola.audit"),
		SweepInterval:   getDuration("TOMBOLA_SWEEP_INTERVAL", 15*time.Second),
		ShutdownTimeout: getDuration("TOMBOLA_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	// Accept plain seconds too.
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
