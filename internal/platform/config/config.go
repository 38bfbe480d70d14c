package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean.
// Per-module tuning (ledger defaults, registry path) lives here too because
// the coordinator is a single deployable unit.
type Config struct {
	Addr string

	// RemoteBaseURL points at the durable remote store's REST surface.
	// Empty selects the PostgreSQL store when PostgresDSN is set.
	RemoteBaseURL string
	PostgresDSN   string

	// GeneratorURL points at the image generation backend.
	GeneratorURL string

	// PublicBaseURL prefixes upload URLs minted by the Postgres store.
	PublicBaseURL string

	Redis RedisConfig

	// KafkaBrokers enables the generation-history fan-out sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// RegistryPath is the JSON file listing valid tool view IDs.
	RegistryPath string

	// GuestDefaultCredits is the allotment assumed for a guest with no
	// remote balance record.
	GuestDefaultCredits int

	JWTSigningKey string
}

// RedisConfig tunes the optional Redis-backed local cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:                envOr("ATELIER_ADDR", ":8080"),
		RemoteBaseURL:       os.Getenv("ATELIER_REMOTE_URL"),
		PostgresDSN:         os.Getenv("ATELIER_POSTGRES_DSN"),
		GeneratorURL:        os.Getenv("ATELIER_GENERATOR_URL"),
		PublicBaseURL:       envOr("ATELIER_PUBLIC_URL", "http://localhost:8080"),
		KafkaTopic:          envOr("ATELIER_KAFKA_TOPIC", "atelier.generation.history"),
		RegistryPath:        envOr("ATELIER_REGISTRY_PATH", "tools.json"),
		GuestDefaultCredits: envIntOr("ATELIER_GUEST_CREDITS", 10),
		JWTSigningKey:       os.Getenv("ATELIER_JWT_SIGNING_KEY"),
		Redis: RedisConfig{
			URL:          os.Getenv("ATELIER_REDIS_URL"),
			PoolSize:     envIntOr("ATELIER_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("ATELIER_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
	if brokers := os.Getenv("ATELIER_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
