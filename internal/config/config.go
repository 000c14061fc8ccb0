package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// DefaultEmbeddingModel is the EMBEDDING_MODEL default.
const DefaultEmbeddingModel = "all-MiniLM-L6-v2"

// Config holds runtime configuration for the embedding service.
type Config struct {
	// Server
	Port            int           `env:"PORT" envDefault:"8000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"10485760"` // 10MB
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Model
	EmbeddingProvider   string        `env:"EMBEDDING_PROVIDER" envDefault:"openai"` // "openai" (any OpenAI-compatible backend) or "hash" (offline)
	EmbeddingModel      string        `env:"EMBEDDING_MODEL" envDefault:"all-MiniLM-L6-v2"`
	EmbeddingBaseURL    string        `env:"EMBEDDING_BASE_URL" envDefault:"http://localhost:8080/v1"`
	EmbeddingAPIKey     string        `env:"EMBEDDING_API_KEY"`
	EmbeddingDimensions int           `env:"EMBEDDING_DIMENSIONS" envDefault:"384"` // 0 learns it from the warm-up probe
	EmbeddingTimeout    time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"30s"`
	EmbeddingNormalize  bool          `env:"EMBEDDING_NORMALIZE" envDefault:"false"`
	ModelLoadAttempts   int           `env:"MODEL_LOAD_ATTEMPTS" envDefault:"5"`
	ModelLoadBackoff    time.Duration `env:"MODEL_LOAD_BACKOFF" envDefault:"500ms"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none"` // "none" or "redis"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"86400"` // seconds, 0 = no expiry

	// NATS request/reply; disabled when NATS_URL is empty
	NATSURL        string `env:"NATS_URL"`
	NATSSubject    string `env:"NATS_SUBJECT" envDefault:"embeddings.encode"`
	NATSQueueGroup string `env:"NATS_QUEUE_GROUP" envDefault:"embedders"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
