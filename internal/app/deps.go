package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"song-suggest/internal/cache"
	"song-suggest/internal/catalog"
	"song-suggest/internal/config"
	"song-suggest/internal/embeddings"
	"song-suggest/internal/llm"
	"song-suggest/internal/logger"
	"song-suggest/internal/queue"
	"song-suggest/internal/retrieval"
	"song-suggest/internal/suggest"
)

// Deps bundles runtime dependencies shared by both binaries.
type Deps struct {
	Config    config.Config
	Log       *slog.Logger
	Retrieval *retrieval.Context
	// Queue is nil when QUEUE_PROVIDER=none.
	Queue queue.Queue
}

// SuggestDeps adds what the online suggest service needs.
type SuggestDeps struct {
	Deps
	LLM     llm.Client
	Cache   cache.Cache
	Suggest *suggest.Service
}

// IndexerDeps adds what the offline indexer needs.
type IndexerDeps struct {
	Deps
	Catalog catalog.Loader
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	embedder, err := buildEmbedder(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	metric, err := retrieval.ParseMetric(cfg.IndexMetric)
	if err != nil {
		return Deps{}, err
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	return Deps{
		Config:    cfg,
		Log:       log,
		Retrieval: retrieval.NewContext(embedder, metric, retrieval.WithWorkers(cfg.SearchWorkers)),
		Queue:     q,
	}, nil
}

// BuildSuggest wires the suggest service on top of Build.
func BuildSuggest() (SuggestDeps, error) {
	deps, err := Build()
	if err != nil {
		return SuggestDeps{}, err
	}
	llmClient, err := buildLLM(deps.Config, deps.Log)
	if err != nil {
		return SuggestDeps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	c := buildCache(deps.Config, deps.Log)
	svc := suggest.NewService(deps.Retrieval, llmClient, c, deps.Log, suggest.Options{
		ContextSize: deps.Config.ContextSize,
		Count:       deps.Config.SuggestionCount,
		CacheTTL:    time.Duration(deps.Config.CacheTTL) * time.Second,
	})
	return SuggestDeps{Deps: deps, LLM: llmClient, Cache: c, Suggest: svc}, nil
}

// BuildIndexer wires the catalog loader on top of Build.
func BuildIndexer() (IndexerDeps, error) {
	deps, err := Build()
	if err != nil {
		return IndexerDeps{}, err
	}
	if deps.Config.DBURL == "" {
		return IndexerDeps{}, fmt.Errorf("DB_URL is required for the indexer")
	}
	mode, err := catalog.ParseTextMode(deps.Config.CatalogText)
	if err != nil {
		return IndexerDeps{}, err
	}
	loader, err := catalog.NewPostgres(deps.Config.DBURL, mode, deps.Log)
	if err != nil {
		return IndexerDeps{}, fmt.Errorf("failed to initialize Postgres catalog: %w", err)
	}
	deps.Log.Info("using Postgres catalog", "text_mode", mode)
	return IndexerDeps{Deps: deps, Catalog: loader}, nil
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	var e embeddings.Embedder
	switch cfg.EmbeddingProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai")
		}
		oe, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel), cfg.EmbeddingDimensions, cfg.EmbeddingTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
		}
		e = oe
	case "hash":
		e = embeddings.NewHashEmbedder(cfg.EmbeddingDimensions)
	default:
		return nil, fmt.Errorf("invalid EMBEDDING_PROVIDER: %s (valid options: openai, hash)", cfg.EmbeddingProvider)
	}
	if cfg.EmbeddingSerialize {
		e = embeddings.NewLocked(e)
	}
	log.Info("using embedder", "provider", cfg.EmbeddingProvider, "model", e.Model(), "dimensions", e.Dimensions(), "serialized", cfg.EmbeddingSerialize)
	return e, nil
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", cfg.LLMModel)
		return client, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid option: openai)", cfg.LLMProvider)
	}
}

// buildCache falls back to the no-op cache when Redis is unreachable.
func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", "addr", cfg.RedisAddr, "err", err)
			return cache.NewNoOpCache()
		}
		log.Info("using Redis suggestion cache", "addr", cfg.RedisAddr, "ttl_s", cfg.CacheTTL)
		return rc
	default:
		return cache.NewNoOpCache()
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "none", "":
		return nil, nil
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid options: nats, none)", cfg.QueueProvider)
	}
}
