package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"song-suggest/internal/embeddings"
)

func TestBuildPreservesPositions(t *testing.T) {
	catalog := songCatalog()
	ix, err := Build(context.Background(), embeddings.NewHashEmbedder(32), catalog, MetricL2)
	require.NoError(t, err)

	assert.Equal(t, len(catalog), ix.Len())
	assert.Len(t, ix.vectors, len(catalog)*32)
	for i, r := range catalog {
		assert.Equal(t, r, ix.Record(i), "position %d", i)
	}
	assert.Equal(t, catalog, ix.Records())
	assert.NotEmpty(t, ix.Info().BuildID)
	assert.Equal(t, "hash-trigram-v1", ix.Info().Model)
}

func TestBuildErrors(t *testing.T) {
	ctx := context.Background()
	hash := embeddings.NewHashEmbedder(8)

	tests := []struct {
		name    string
		records []Record
		metric  Metric
		wantErr error
	}{
		{name: "empty catalog", records: nil, metric: MetricL2, wantErr: ErrBuild},
		{name: "duplicate id", records: []Record{{ID: "1", Text: "a"}, {ID: "1", Text: "b"}}, metric: MetricL2, wantErr: ErrBuild},
		{name: "blank text", records: []Record{{ID: "1", Text: " "}}, metric: MetricL2, wantErr: ErrBuild},
		{name: "invalid metric", records: []Record{{ID: "1", Text: "a"}}, metric: 0, wantErr: ErrBuild},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(ctx, hash, tt.records, tt.metric)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuildInconsistentDimension(t *testing.T) {
	m := new(embeddings.MockEmbedder)
	m.On("Dimensions").Return(2)
	m.On("Model").Return("mock")
	m.On("Embed", mock.Anything, []string{"a", "b"}).
		Return([]embeddings.Vector{{1, 0}, {1, 0, 0}}, nil).Once()

	_, err := Build(context.Background(), m, []Record{{ID: "1", Text: "a"}, {ID: "2", Text: "b"}}, MetricL2)
	assert.ErrorIs(t, err, ErrBuild)
	m.AssertExpectations(t)
}

func TestBuildShortEmbeddingBatch(t *testing.T) {
	m := new(embeddings.MockEmbedder)
	m.On("Dimensions").Return(2)
	m.On("Embed", mock.Anything, mock.Anything).Return([]embeddings.Vector{{1, 0}}, nil).Once()

	_, err := Build(context.Background(), m, []Record{{ID: "1", Text: "a"}, {ID: "2", Text: "b"}}, MetricL2)
	assert.ErrorIs(t, err, ErrBuild)
}

func TestBuildPropagatesEmbeddingError(t *testing.T) {
	m := new(embeddings.MockEmbedder)
	m.On("Dimensions").Return(2)
	m.On("Embed", mock.Anything, mock.Anything).
		Return(nil, errors.Join(embeddings.ErrEmbedding, errors.New("backend down"))).Once()

	_, err := Build(context.Background(), m, []Record{{ID: "1", Text: "a"}}, MetricL2)
	assert.ErrorIs(t, err, embeddings.ErrEmbedding)
	assert.NotErrorIs(t, err, ErrBuild)
}

func TestBuildCosineNormalizes(t *testing.T) {
	e := &tableEmbedder{dim: 2, vecs: map[string]embeddings.Vector{"a": {3, 4}}}
	ix, err := Build(context.Background(), e, []Record{{ID: "1", Text: "a"}}, MetricCosine)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, ix.vector(0)[0], 1e-5)
	assert.InDelta(t, 0.8, ix.vector(0)[1], 1e-5)
	// The embedder's own vector is not modified.
	assert.Equal(t, embeddings.Vector{3, 4}, e.vecs["a"])
}
