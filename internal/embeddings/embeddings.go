package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/vecgo/distance"
)

// Vector is a simple float32 slice wrapper.
type Vector []float32

// ErrEmbedding is returned when the backend is unavailable, times out, or the input is malformed.
var ErrEmbedding = errors.New("embedding failed")

// Embedder maps texts to vectors of a fixed dimension, one per input in input order.
// The same Embedder must be used for catalog text and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]Vector, error)
	Dimensions() int
	Model() string
}

// EmbedOne embeds a single text through e.
func EmbedOne(ctx context.Context, e Embedder, text string) (Vector, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: expected 1 vector, got %d", ErrEmbedding, len(vecs))
	}
	return vecs[0], nil
}

// checkInputs rejects blank texts; an empty slice is valid.
func checkInputs(texts []string) error {
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w: input %d is empty", ErrEmbedding, i)
		}
	}
	return nil
}

// Normalize scales v to unit length in place. Zero vectors are left unchanged.
func Normalize(v Vector) {
	distance.NormalizeL2InPlace(v)
}
