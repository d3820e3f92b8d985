package indexing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/poiesic/medimatch/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReindexer_Run(t *testing.T) {
	concepts, infos := setupTestDB(t)
	ctx := context.Background()

	builder, err := NewBuilder(concepts, infos, mock.NewMockEmbedder(), testConfig(), nil)
	require.NoError(t, err)
	_, err = builder.Build(ctx, "concepts", strings.NewReader(testCatalogue))
	require.NoError(t, err)

	// A new model with a different dimension
	embedder := unnormalizedEmbedder()
	cfg := testConfig()
	cfg.EmbeddingModel = "mock-v2"

	var buf bytes.Buffer
	reindexer, err := NewReindexer(concepts, infos, embedder, cfg, &buf)
	require.NoError(t, err)

	info, err := reindexer.Run(ctx, "concepts")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Dimension)
	assert.Equal(t, "mock-v2", info.EmbeddingModel)
	assert.Equal(t, 3, info.Concepts)

	stored, err := concepts.GetAllConcepts(ctx, "concepts")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for _, c := range stored {
		require.Len(t, c.Vector, 3)
		assert.InDelta(t, 1.0/3.0, c.Vector[0], 1e-6)
	}

	saved, err := infos.LoadCatalogInfo(ctx, "concepts")
	require.NoError(t, err)
	assert.Equal(t, "mock-v2", saved.EmbeddingModel)
	assert.Contains(t, buf.String(), "concepts: 3/3 (100.0%)")
}

func TestReindexer_MissingCatalogue(t *testing.T) {
	concepts, infos := setupTestDB(t)

	reindexer, err := NewReindexer(concepts, infos, mock.NewMockEmbedder(), nil, nil)
	require.NoError(t, err)

	_, err = reindexer.Run(context.Background(), "diseases")
	assert.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestNewReindexer_Validation(t *testing.T) {
	concepts, infos := setupTestDB(t)

	_, err := NewReindexer(nil, infos, mock.NewMockEmbedder(), nil, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewReindexer(concepts, infos, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}
