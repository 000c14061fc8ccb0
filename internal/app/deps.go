package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"embed-service/internal/cache"
	"embed-service/internal/config"
	"embed-service/internal/embeddings"
	"embed-service/internal/logger"
	"embed-service/internal/queue"
)

// Deps bundles the runtime dependencies of the service. Model is loaded once
// at startup and shared read-only by every transport.
type Deps struct {
	Config    config.Config
	Log       *slog.Logger
	Model     *embeddings.Model
	Cache     cache.Cache
	Responder queue.Responder // nil when NATS is disabled
	nc        *nats.Conn
}

// Build loads env, config, and shared components, then loads the model.
func Build(ctx context.Context) (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	backend, err := buildEmbedder(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c := buildCache(cfg, log)
	if cfg.CacheProvider == "redis" {
		backend = embeddings.NewCachedEmbedder(backend, c, time.Duration(cfg.CacheTTL)*time.Second, log)
	}

	model, err := embeddings.Load(ctx, backend, embeddings.LoadOptions{
		Dimensions: cfg.EmbeddingDimensions,
		Normalize:  cfg.EmbeddingNormalize,
		Attempts:   cfg.ModelLoadAttempts,
		Backoff:    cfg.ModelLoadBackoff,
		Log:        log,
	})
	if err != nil {
		_ = c.Close()
		return Deps{}, fmt.Errorf("failed to load embedding model: %w", err)
	}

	deps := Deps{
		Config: cfg,
		Log:    log,
		Model:  model,
		Cache:  c,
	}
	if err := deps.buildResponder(); err != nil {
		_ = c.Close()
		return Deps{}, fmt.Errorf("failed to initialize nats: %w", err)
	}
	return deps, nil
}

// Close releases connections opened by Build.
func (d Deps) Close() {
	if d.nc != nil {
		d.nc.Close()
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Log.Warn("cache close failed", "err", err)
		}
	}
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		e, err := embeddings.NewOpenAIEmbedder(embeddings.OpenAIOptions{
			BaseURL: cfg.EmbeddingBaseURL,
			APIKey:  cfg.EmbeddingAPIKey,
			Model:   cfg.EmbeddingModel,
			Timeout: cfg.EmbeddingTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI-compatible embedder: %w", err)
		}
		log.Info("using OpenAI-compatible embedder", "model", cfg.EmbeddingModel, "base_url", cfg.EmbeddingBaseURL)
		return e, nil
	case "hash":
		e := embeddings.NewHashEmbedder(hashModelName(cfg), cfg.EmbeddingDimensions)
		log.Warn("using hash embedder; vectors are not semantic", "model", e.Model(), "dimensions", cfg.EmbeddingDimensions)
		return e, nil
	default:
		return nil, fmt.Errorf("invalid EMBEDDING_PROVIDER: %s (valid options: openai, hash)", cfg.EmbeddingProvider)
	}
}

// hashModelName keeps the hash embedder from reporting the default
// pretrained model's name unless EMBEDDING_MODEL names something else.
func hashModelName(cfg config.Config) string {
	if cfg.EmbeddingModel != "" && cfg.EmbeddingModel != config.DefaultEmbeddingModel {
		return cfg.EmbeddingModel
	}
	dims := cfg.EmbeddingDimensions
	if dims <= 0 {
		dims = embeddings.DefaultHashDimensions
	}
	return fmt.Sprintf("hash-%d", dims)
}

// buildCache never fails: an unreachable Redis degrades to no caching.
func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable; caching disabled", "addr", cfg.RedisAddr, "err", err)
			return cache.NewNoOpCache()
		}
		log.Info("using Redis embedding cache", "addr", cfg.RedisAddr, "ttl_s", cfg.CacheTTL)
		return rc
	case "none", "":
		return cache.NewNoOpCache()
	default:
		log.Warn("unknown CACHE_PROVIDER; caching disabled", "provider", cfg.CacheProvider)
		return cache.NewNoOpCache()
	}
}

func (d *Deps) buildResponder() error {
	if d.Config.NATSURL == "" {
		return nil
	}
	nc, err := nats.Connect(d.Config.NATSURL, nats.Name("embed-service"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	d.nc = nc
	d.Responder = queue.NewNATS(d.Log, nc, d.Config.NATSSubject, d.Config.NATSQueueGroup, d.Model, d.Config.RequestTimeout, d.Config.ShutdownTimeout)
	d.Log.Info("using NATS transport", "url", d.Config.NATSURL, "subject", d.Config.NATSSubject)
	return nil
}
