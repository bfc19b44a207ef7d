package embeddings

import (
	"context"
	"sync"
)

// Locked serializes calls into an Embedder whose backend is not safe for concurrent use.
// Only the embedding call is serialized; callers search the index without the lock.
type Locked struct {
	mu    sync.Mutex
	inner Embedder
}

func NewLocked(inner Embedder) *Locked {
	return &Locked{inner: inner}
}

func (l *Locked) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.Embed(ctx, texts)
}

func (l *Locked) Dimensions() int { return l.inner.Dimensions() }

func (l *Locked) Model() string { return l.inner.Model() }
