package retrieval

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"

	"song-suggest/internal/embeddings"
)

// Context holds the embedder and the currently served index. Searches read
// the index through an atomic pointer, so a Swap never exposes a half-built
// pair to in-flight queries.
type Context struct {
	embedder embeddings.Embedder
	metric   Metric
	workers  int
	current  atomic.Pointer[Index]
}

// Option configures a Context.
type Option func(*Context)

// WithWorkers sets how many goroutines a single search may use. Zero or
// negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Context) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		c.workers = n
	}
}

// NewContext returns a Context with no index loaded.
func NewContext(e embeddings.Embedder, metric Metric, opts ...Option) *Context {
	c := &Context{embedder: e, metric: metric, workers: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Embedder() embeddings.Embedder { return c.embedder }

func (c *Context) Metric() Metric { return c.metric }

// Current returns the served index, or nil before the first Swap.
func (c *Context) Current() *Index { return c.current.Load() }

// Expect describes the artifacts this Context can serve.
func (c *Context) Expect() Expect {
	return Expect{
		Dimension: c.embedder.Dimensions(),
		Metric:    c.metric,
		Model:     c.embedder.Model(),
	}
}

// Build builds an index with this Context's embedder and metric. It does not swap it in.
func (c *Context) Build(ctx context.Context, records []Record) (*Index, error) {
	return Build(ctx, c.embedder, records, c.metric)
}

// Swap installs ix as the served index and returns the previous one.
func (c *Context) Swap(ix *Index) (*Index, error) {
	if ix == nil {
		return nil, fmt.Errorf("swap: nil index")
	}
	if d := c.embedder.Dimensions(); ix.Dimension() != d {
		return nil, fmt.Errorf("%w: index dimension %d does not match embedder dimension %d", ErrStoreCorrupt, ix.Dimension(), d)
	}
	if ix.Metric() != c.metric {
		return nil, fmt.Errorf("%w: index metric %s does not match configured metric %s", ErrStoreCorrupt, ix.Metric(), c.metric)
	}
	return c.current.Swap(ix), nil
}

// Reload loads the artifact pair in dir and swaps it in. On error the served index is unchanged.
func (c *Context) Reload(dir string) (*Index, error) {
	ix, err := Load(dir, c.Expect())
	if err != nil {
		return nil, err
	}
	if _, err := c.Swap(ix); err != nil {
		return nil, err
	}
	return ix, nil
}

// Search ranks the served index against an already embedded query.
func (c *Context) Search(query embeddings.Vector, k int) ([]Hit, error) {
	ix := c.current.Load()
	if ix == nil {
		return nil, ErrNotLoaded
	}
	return ix.SearchParallel(query, k, c.workers)
}

// Query embeds text and returns its k nearest catalog records from the served index.
func (c *Context) Query(ctx context.Context, text string, k int) ([]Hit, error) {
	return c.QueryIndex(ctx, c.current.Load(), text, k)
}

// QueryIndex is Query against a specific index, typically one obtained from
// Current so that callers can tie the hits to that index's Info.
func (c *Context) QueryIndex(ctx context.Context, ix *Index, text string, k int) ([]Hit, error) {
	if ix == nil {
		return nil, ErrNotLoaded
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrQuery, k)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: query text is empty", ErrQuery)
	}
	vec, err := embeddings.EmbedOne(ctx, c.embedder, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return ix.SearchParallel(vec, k, c.workers)
}
