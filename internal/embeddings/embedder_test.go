package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	e := NewSimpleEmbedder(0)

	first, err := e.Embed(ctx, "the quick brown fox")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "the quick brown fox")
	require.NoError(t, err)

	assert.Equal(t, first, second)

	other, err := e.Embed(ctx, "a different sentence")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestSimpleEmbedderDimensions(t *testing.T) {
	e := NewSimpleEmbedder(0)
	assert.Equal(t, DefaultDimensions, e.Dimensions())

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, DefaultDimensions)

	small := NewSimpleEmbedder(16)
	vec, err = small.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 16)
}

func TestSimpleEmbedderUnitNorm(t *testing.T) {
	e := NewSimpleEmbedder(64)
	vec, err := e.Embed(context.Background(), "normalize me")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-4)
}

func TestSimpleEmbedderEmptyText(t *testing.T) {
	e := NewSimpleEmbedder(8)
	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, vec, 8)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	e, err := New("simple", "", "", "", 0)
	require.NoError(t, err)
	assert.IsType(t, &SimpleEmbedder{}, e)

	e, err = New("", "", "", "", 0)
	require.NoError(t, err)
	assert.IsType(t, &SimpleEmbedder{}, e)

	e, err = New("openai", "", "sk-test", "text-embedding-3-small", 384)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, e)

	_, err = New("openai", "", "", "", 0)
	assert.ErrorContains(t, err, "API key")

	_, err = New("quantum", "", "", "", 0)
	assert.ErrorContains(t, err, "unknown embedding provider")
}
