package config

import (
	"os"
	"testing"
	"time"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if old, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, old) })
		}
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "PORT", "LOG_LEVEL", "INDEX_DIR", "INDEX_METRIC", "EMBEDDING_PROVIDER",
		"EMBEDDING_MODEL", "EMBEDDING_DIMENSIONS", "EMBEDDING_TIMEOUT", "LLM_MODEL", "CONTEXT_SIZE",
		"SUGGESTION_COUNT", "CACHE_PROVIDER", "QUEUE_PROVIDER", "CATALOG_TEXT")

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"IndexDir", cfg.IndexDir, "./data/index"},
		{"IndexMetric", cfg.IndexMetric, "l2"},
		{"EmbeddingProvider", cfg.EmbeddingProvider, "openai"},
		{"EmbeddingModel", cfg.EmbeddingModel, "text-embedding-3-small"},
		{"EmbeddingDimensions", cfg.EmbeddingDimensions, 1536},
		{"EmbeddingTimeout", cfg.EmbeddingTimeout, 30 * time.Second},
		{"LLMModel", cfg.LLMModel, "gpt-4o-mini"},
		{"ContextSize", cfg.ContextSize, 5},
		{"SuggestionCount", cfg.SuggestionCount, 3},
		{"CacheProvider", cfg.CacheProvider, "none"},
		{"QueueProvider", cfg.QueueProvider, "none"},
		{"CatalogText", cfg.CatalogText, "title"},
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
	t.Setenv("EMBEDDING_DIMENSIONS", "384")
	t.Setenv("EMBEDDING_TIMEOUT", "5s")
	t.Setenv("INDEX_METRIC", "cosine")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
	if cfg.EmbeddingDimensions != 384 {
		t.Errorf("expected 384 dimensions, got %d", cfg.EmbeddingDimensions)
	}
	if cfg.EmbeddingTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.EmbeddingTimeout)
	}
	if cfg.IndexMetric != "cosine" {
		t.Errorf("expected cosine metric, got %s", cfg.IndexMetric)
	}
}

func TestLoadProviderOverrides(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "hash")
	t.Setenv("CACHE_PROVIDER", "redis")

	cfg := Load()

	if cfg.EmbeddingProvider != "hash" {
		t.Errorf("expected embedding provider 'hash', got %s", cfg.EmbeddingProvider)
	}
	if cfg.CacheProvider != "redis" {
		t.Errorf("expected cache provider 'redis', got %s", cfg.CacheProvider)
	}
}
