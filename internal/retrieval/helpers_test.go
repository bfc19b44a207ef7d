package retrieval

import (
	"context"
	"fmt"

	"song-suggest/internal/embeddings"
)

// tableEmbedder maps known texts to fixed vectors so tests control distances exactly.
type tableEmbedder struct {
	dim   int
	model string
	vecs  map[string]embeddings.Vector
}

func (e *tableEmbedder) Embed(_ context.Context, texts []string) ([]embeddings.Vector, error) {
	out := make([]embeddings.Vector, len(texts))
	for i, t := range texts {
		v, ok := e.vecs[t]
		if !ok {
			return nil, fmt.Errorf("%w: unknown text %q", embeddings.ErrEmbedding, t)
		}
		out[i] = v
	}
	return out, nil
}

func (e *tableEmbedder) Dimensions() int { return e.dim }

func (e *tableEmbedder) Model() string {
	if e.model == "" {
		return "table"
	}
	return e.model
}

func songCatalog() []Record {
	return []Record{
		{ID: "1", Text: "Yesterday"},
		{ID: "2", Text: "Let It Be"},
		{ID: "3", Text: "Hey Jude"},
		{ID: "4", Text: "Here Comes the Sun"},
		{ID: "5", Text: "Come Together"},
	}
}

func hitIDs(hits []Hit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.Record.ID
	}
	return ids
}
