package embeddings

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/vecgo/distance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	v := Vector{3, 4}
	Normalize(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := Vector{0, 0}
	Normalize(zero)
	assert.Equal(t, Vector{0, 0}, zero)
}

func TestHashEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	a := NewHashEmbedder(64)
	b := NewHashEmbedder(64)

	texts := []string{"Yesterday", "Let It Be", "Hey Jude"}
	first, err := a.Embed(ctx, texts)
	require.NoError(t, err)
	second, err := b.Embed(ctx, texts)
	require.NoError(t, err)

	require.Len(t, first, len(texts))
	for i := range texts {
		assert.Len(t, first[i], 64)
		assert.Equal(t, first[i], second[i], "text %q embedded differently", texts[i])
	}
	assert.NotEqual(t, first[0], first[1])
}

func TestHashEmbedderSimilarTextsAreCloser(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(256)
	vecs, err := e.Embed(ctx, []string{"let it be", "Let It Be (Remastered)", "bohemian rhapsody"})
	require.NoError(t, err)

	// Hash vectors are unit length, so the dot product is the cosine.
	near := distance.Dot(vecs[0], vecs[1])
	far := distance.Dot(vecs[0], vecs[2])
	assert.Greater(t, near, far)
}

func TestHashEmbedderInputs(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(16)

	out, err := e.Embed(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = e.Embed(ctx, []string{"ok", "   "})
	assert.ErrorIs(t, err, ErrEmbedding)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = e.Embed(canceled, []string{"ok"})
	assert.ErrorIs(t, err, ErrEmbedding)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 384, NewHashEmbedder(0).Dimensions())
	assert.Equal(t, hashModel, e.Model())
}

func TestEmbedOne(t *testing.T) {
	ctx := context.Background()
	m := new(MockEmbedder)
	m.On("Embed", mock.Anything, []string{"hey jude"}).Return([]Vector{{1, 2}}, nil).Once()
	m.On("Embed", mock.Anything, []string{"broken"}).Return([]Vector{}, nil).Once()

	vec, err := EmbedOne(ctx, m, "hey jude")
	require.NoError(t, err)
	assert.Equal(t, Vector{1, 2}, vec)

	_, err = EmbedOne(ctx, m, "broken")
	assert.ErrorIs(t, err, ErrEmbedding)
	m.AssertExpectations(t)
}

func TestLockedDelegates(t *testing.T) {
	ctx := context.Background()
	m := new(MockEmbedder)
	m.On("Embed", mock.Anything, []string{"a"}).Return(nil, errors.New("down")).Once()
	m.On("Dimensions").Return(8)
	m.On("Model").Return("mock")

	l := NewLocked(m)
	_, err := l.Embed(ctx, []string{"a"})
	assert.EqualError(t, err, "down")
	assert.Equal(t, 8, l.Dimensions())
	assert.Equal(t, "mock", l.Model())
	m.AssertExpectations(t)
}
