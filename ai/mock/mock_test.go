package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medimatch/ai"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder()

	a, err := m.EmbedText(ctx, "chest pain")
	require.NoError(t, err)
	b, err := m.EmbedText(ctx, "chest pain")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, DefaultDimension)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-4)

	batch, err := m.EmbedTexts(ctx, []string{"chest pain", "nausea"})
	require.NoError(t, err)
	assert.Equal(t, a, batch[0])
	assert.Equal(t, 3, m.CallCount())

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
}

func TestMockEmbedder_BatchUsesEmbedTextFunc(t *testing.T) {
	m := NewMockEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "bad" {
			return nil, errors.New("boom")
		}
		return []float32{1, 0}, nil
	}

	vecs, err := m.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {1, 0}}, vecs)

	_, err = m.EmbedTexts(context.Background(), []string{"a", "bad"})
	assert.Error(t, err)
}

func TestMockClassifier(t *testing.T) {
	ctx := context.Background()
	c := NewMockClassifier()

	got, err := c.Entail(ctx, "p", "h")
	require.NoError(t, err)
	assert.Equal(t, Neutral, got)
	assert.NoError(t, got.Validate())

	c.EntailFunc = func(ctx context.Context, premise, hypothesis string) (ai.Entailment, error) {
		return ai.Entailment{Entailment: 1}, nil
	}
	got, err = c.Entail(ctx, "p", "h")
	require.NoError(t, err)
	assert.Equal(t, float32(1), got.Entailment)
	assert.Equal(t, 2, c.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	assert.NotNil(t, p.Embedder())
	assert.NotNil(t, p.Classifier())
	assert.NoError(t, p.Close())

	embedder := NewMockEmbedder()
	classifier := NewMockClassifier()
	custom := NewMockProviderWithServices(embedder, classifier).(*MockProvider)
	assert.Same(t, embedder, custom.GetMockEmbedder())
	assert.Same(t, classifier, custom.GetMockClassifier())
}
