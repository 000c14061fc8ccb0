package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Save original env and restore after test
	originalEnv := os.Environ()
	defer func() {
		os.Clearenv()
		for _, kv := range originalEnv {
			for i, c := range kv {
				if c == '=' {
					os.Setenv(kv[:i], kv[i+1:])
					break
				}
			}
		}
	}()

	os.Clearenv()

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8000},
		{"LogLevel", cfg.LogLevel, "info"},
		{"MaxBodyBytes", cfg.MaxBodyBytes, int64(10485760)},
		{"RequestTimeout", cfg.RequestTimeout, 60 * time.Second},
		{"EmbeddingProvider", cfg.EmbeddingProvider, "openai"},
		{"EmbeddingModel", cfg.EmbeddingModel, "all-MiniLM-L6-v2"},
		{"DefaultEmbeddingModel", cfg.EmbeddingModel, DefaultEmbeddingModel},
		{"EmbeddingDimensions", cfg.EmbeddingDimensions, 384},
		{"EmbeddingNormalize", cfg.EmbeddingNormalize, false},
		{"ModelLoadAttempts", cfg.ModelLoadAttempts, 5},
		{"ModelLoadBackoff", cfg.ModelLoadBackoff, 500 * time.Millisecond},
		{"CacheProvider", cfg.CacheProvider, "none"},
		{"CacheTTL", cfg.CacheTTL, 86400},
		{"NATSURL", cfg.NATSURL, ""},
		{"NATSSubject", cfg.NATSSubject, "embeddings.encode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("EMBEDDING_TIMEOUT", "5s")
	t.Setenv("EMBEDDING_NORMALIZE", "true")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
	if cfg.EmbeddingTimeout != 5*time.Second {
		t.Errorf("expected embedding timeout 5s, got %v", cfg.EmbeddingTimeout)
	}
	if !cfg.EmbeddingNormalize {
		t.Error("expected normalize to be enabled")
	}
}

func TestLoadProviderOverrides(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "hash")
	t.Setenv("CACHE_PROVIDER", "redis")
	t.Setenv("EMBEDDING_DIMENSIONS", "0")

	cfg := Load()

	if cfg.EmbeddingProvider != "hash" {
		t.Errorf("expected embedding provider 'hash', got %s", cfg.EmbeddingProvider)
	}
	if cfg.CacheProvider != "redis" {
		t.Errorf("expected cache provider 'redis', got %s", cfg.CacheProvider)
	}
	if cfg.EmbeddingDimensions != 0 {
		t.Errorf("expected dimensions 0, got %d", cfg.EmbeddingDimensions)
	}
}
