package embeddings

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// HashEmbedder is a deterministic feature-hashing embedder. Word unigrams and
// character trigrams are hashed into signed buckets and the result is L2-normalized.
// It needs no network and is used for local builds and tests.
type HashEmbedder struct {
	dimensions int
}

const hashModel = "hash-trigram-v1"

func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

func (e *HashEmbedder) Dimensions() int { return e.dimensions }

func (e *HashEmbedder) Model() string { return hashModel }

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	if len(texts) == 0 {
		return []Vector{}, nil
	}
	if err := checkInputs(texts); err != nil {
		return nil, err
	}
	out := make([]Vector, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
		}
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *HashEmbedder) embed(text string) Vector {
	vec := make(Vector, e.dimensions)
	for _, word := range tokenize(text) {
		e.add(vec, "w:"+word, 1)
		padded := []rune(" " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			e.add(vec, "t:"+string(padded[i:i+3]), 0.5)
		}
	}
	Normalize(vec)
	return vec
}

func (e *HashEmbedder) add(vec Vector, feature string, weight float32) {
	h := xxhash.Sum64String(feature)
	bucket := h % uint64(e.dimensions)
	if h&(1<<63) != 0 {
		weight = -weight
	}
	vec[bucket] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
