// Package suggest turns ranked catalog hits into a prompt and asks a generative model for suggestions.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"song-suggest/internal/cache"
	"song-suggest/internal/llm"
	"song-suggest/internal/retrieval"
)

// ErrGeneration is returned when the generative model call fails.
var ErrGeneration = errors.New("suggestion generation failed")

type Options struct {
	// ContextSize is how many nearest songs ground the prompt.
	ContextSize int
	// Count is how many songs the model is asked to pick.
	Count    int
	CacheTTL time.Duration
}

// Result is the answer to one suggest request.
type Result struct {
	Result  string       `json:"result"`
	Songs   []cache.Song `json:"songs"`
	BuildID string       `json:"build_id"`
	Cached  bool         `json:"cached"`
}

type Service struct {
	rc    *retrieval.Context
	llm   llm.Client
	cache cache.Cache
	log   *slog.Logger
	opts  Options
}

func NewService(rc *retrieval.Context, client llm.Client, c cache.Cache, log *slog.Logger, opts Options) *Service {
	if opts.ContextSize <= 0 {
		opts.ContextSize = 5
	}
	if opts.Count <= 0 {
		opts.Count = 3
	}
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &Service{rc: rc, llm: client, cache: c, log: log, opts: opts}
}

// Suggest retrieves the songs nearest to text and asks the model to pick from them.
// An empty catalog yields an empty Result without calling the model.
func (s *Service) Suggest(ctx context.Context, text string) (Result, error) {
	ix := s.rc.Current()
	if ix == nil {
		return Result{}, retrieval.ErrNotLoaded
	}
	buildID := ix.Info().BuildID
	key := cache.Key(buildID, text, s.opts.ContextSize)

	if cached, err := s.cache.GetSuggestion(ctx, key); err != nil {
		s.log.Warn("cache read failed", "err", err)
	} else if cached != nil {
		s.log.Debug("cache hit", "build_id", buildID)
		return Result{Result: cached.Result, Songs: cached.Songs, BuildID: cached.BuildID, Cached: true}, nil
	}

	hits, err := s.rc.QueryIndex(ctx, ix, text, s.opts.ContextSize)
	if err != nil {
		return Result{}, err
	}
	songs := toSongs(hits)
	if len(hits) == 0 {
		return Result{Songs: songs, BuildID: buildID}, nil
	}

	answer, err := s.llm.Complete(ctx, systemPrompt, BuildPrompt(text, hits, s.opts.Count))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if err := s.cache.SetSuggestion(ctx, key, &cache.Suggestion{
		Result:  answer,
		Songs:   songs,
		BuildID: buildID,
	}, s.opts.CacheTTL); err != nil {
		// Log cache write failure but don't fail the request
		s.log.Warn("failed to cache suggestion", "err", err)
	}
	return Result{Result: answer, Songs: songs, BuildID: buildID}, nil
}

// Reload swaps in the index persisted at dir and drops cached suggestions.
func (s *Service) Reload(ctx context.Context, dir string) (retrieval.Info, error) {
	ix, err := s.rc.Reload(dir)
	if err != nil {
		return retrieval.Info{}, err
	}
	if err := s.cache.Flush(ctx); err != nil {
		s.log.Warn("failed to flush suggestion cache", "err", err)
	}
	s.log.Info("index reloaded", "build_id", ix.Info().BuildID, "size", ix.Len(), "dimension", ix.Dimension())
	return ix.Info(), nil
}

func toSongs(hits []retrieval.Hit) []cache.Song {
	songs := make([]cache.Song, len(hits))
	for i, h := range hits {
		songs[i] = cache.Song{ID: h.Record.ID, Title: h.Record.Text, Distance: h.Distance}
	}
	return songs
}
