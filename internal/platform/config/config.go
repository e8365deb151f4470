package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. Values come from environment
// variables so main stays lean; optional integrations (Postgres, Redis,
// Kafka) are disabled when their setting is empty.
type Config struct {
	Addr string

	PostgresDSN string

	RedisURL          string
	DirectoryCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// AdminAddr is seeded as a verified admin/verifier at startup.
	AdminAddr string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:              getenv("WRLDRELIEF_ADDR", ":8080"),
		PostgresDSN:       os.Getenv("WRLDRELIEF_POSTGRES_DSN"),
		RedisURL:          os.Getenv("WRLDRELIEF_REDIS_URL"),
		DirectoryCacheTTL: 5 * time.Minute,
		KafkaTopic:        getenv("WRLDRELIEF_KAFKA_TOPIC", "wrldrelief.events"),
		JWTSigningKey:     getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:         getenv("JWT_ISSUER", "wrldrelief"),
		JWTAudience:       getenv("JWT_AUDIENCE", "wrldrelief-api"),
		AdminAddr:         os.Getenv("WRLDRELIEF_ADMIN_ADDR"),
	}
	if brokers := os.Getenv("WRLDRELIEF_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if ttl := os.Getenv("WRLDRELIEF_DIRECTORY_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.DirectoryCacheTTL = d
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
