package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIEmbedder calls OpenAI's embeddings API.
type OpenAIEmbedder struct {
	model      openai.EmbeddingModel
	dimensions int
	timeout    time.Duration
	client     *openai.Client
}

const (
	defaultEmbeddingTimeout = 30 * time.Second
	defaultDimensions       = 1536
	// maxBatch stays well below the API's per-request input limit.
	maxBatch = 512
)

// NewOpenAIEmbedder creates a new OpenAI embedder producing vectors of the given dimension.
func NewOpenAIEmbedder(apiKey string, model openai.EmbeddingModel, dimensions int, timeout time.Duration, opts ...option.RequestOption) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	if dimensions <= 0 {
		dimensions = defaultDimensions
	}
	if timeout <= 0 {
		timeout = defaultEmbeddingTimeout
	}
	cli := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIEmbedder{
		model:      model,
		dimensions: dimensions,
		timeout:    timeout,
		client:     &cli,
	}, nil
}

func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }

func (e *OpenAIEmbedder) Model() string { return string(e.model) }

// Embed sends texts in batches and returns the vectors in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	if e == nil || e.client == nil {
		return nil, fmt.Errorf("%w: nil openai client", ErrEmbedding)
	}
	if len(texts) == 0 {
		return []Vector{}, nil
	}
	if err := checkInputs(texts); err != nil {
		return nil, err
	}
	out := make([]Vector, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Embeddings.New(reqCtx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:      e.model,
		Dimensions: openai.Int(int64(e.dimensions)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: openai returned %d vectors for %d inputs", ErrEmbedding, len(resp.Data), len(texts))
	}

	// The API tags each vector with its input index; do not rely on response order.
	vecs := make([]Vector, len(texts))
	for _, d := range resp.Data {
		i := int(d.Index)
		if i < 0 || i >= len(vecs) || vecs[i] != nil {
			return nil, fmt.Errorf("%w: openai returned bad index %d", ErrEmbedding, d.Index)
		}
		if len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("%w: openai returned dimension %d, want %d", ErrEmbedding, len(d.Embedding), e.dimensions)
		}
		vec := make(Vector, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		vecs[i] = vec
	}
	return vecs, nil
}
