package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration shared by the indexer and the suggest service.
type Config struct {
	// Server
	Port                  int    `env:"PORT" envDefault:"8080"`
	LogLevel              string `env:"LOG_LEVEL" envDefault:"info"`
	MaxConcurrentRequests int    `env:"MAX_CONCURRENT_REQUESTS" envDefault:"64"`

	// Catalog
	DBURL       string `env:"DB_URL"`
	CatalogText string `env:"CATALOG_TEXT" envDefault:"title"` // "title" or "rich" (title + artists + album)

	// Index
	IndexDir      string `env:"INDEX_DIR" envDefault:"./data/index"`
	IndexMetric   string `env:"INDEX_METRIC" envDefault:"l2"` // "l2" or "cosine"
	SearchWorkers int    `env:"SEARCH_WORKERS" envDefault:"0"` // 0 = GOMAXPROCS

	// Embeddings
	EmbeddingProvider   string        `env:"EMBEDDING_PROVIDER" envDefault:"openai"` // "openai" or "hash" (offline, deterministic)
	OpenAIKey           string        `env:"OPENAI_API_KEY"`
	EmbeddingModel      string        `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDimensions int           `env:"EMBEDDING_DIMENSIONS" envDefault:"1536"`
	EmbeddingTimeout    time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"30s"`
	EmbeddingSerialize  bool          `env:"EMBEDDING_SERIALIZE" envDefault:"false"`
	EmbeddingRetries    int           `env:"EMBEDDING_RETRIES" envDefault:"3"`

	// Suggestions
	LLMProvider     string `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMModel        string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	ContextSize     int    `env:"CONTEXT_SIZE" envDefault:"5"`
	SuggestionCount int    `env:"SUGGESTION_COUNT" envDefault:"3"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none"` // "redis" or "none"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"none"` // "nats" or "none"
	QueueURL      string `env:"QUEUE_URL"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
