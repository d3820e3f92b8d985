package catalog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medimatch/core"
)

func TestNewStore(t *testing.T) {
	t.Run("empty catalogue", func(t *testing.T) {
		_, err := NewStore(nil)
		assert.ErrorIs(t, err, ErrCatalogEmpty)
	})

	t.Run("invalid concept", func(t *testing.T) {
		_, err := NewStore([]*core.Concept{{Label: "Angina"}, {Label: " "}})
		assert.ErrorIs(t, err, core.ErrEmptyConceptLabel)
	})

	t.Run("ordinals", func(t *testing.T) {
		s, err := NewStore([]*core.Concept{{Label: "Angina"}, {Label: "Migraine"}}, WithLogger(nil))
		require.NoError(t, err)
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, 1, s.Concept(1).Ordinal)
		assert.Equal(t, core.IDFromContent("Migraine"), s.Concept(1).Key)
		assert.Nil(t, s.Concept(2))
		assert.Nil(t, s.Concept(-1))
	})

	t.Run("duplicate label is kept and logged", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		s, err := NewStore([]*core.Concept{{Label: "Flu", System: "a"}, {Label: "Flu", System: "b"}}, WithLogger(logger))
		require.NoError(t, err)
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, "b", s.Concept(1).System)
		assert.Contains(t, buf.String(), "duplicate concept label")
	})
}

func TestStore_BuildIndex(t *testing.T) {
	t.Run("missing vector", func(t *testing.T) {
		s, err := NewStore([]*core.Concept{{Label: "Angina", Vector: []float32{1, 0}}, {Label: "Migraine"}})
		require.NoError(t, err)
		_, err = s.BuildIndex()
		assert.ErrorIs(t, err, ErrIndexMissing)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		s, err := NewStore([]*core.Concept{{Label: "Angina", Vector: []float32{1, 0}}, {Label: "Migraine", Vector: []float32{1}}})
		require.NoError(t, err)
		_, err = s.BuildIndex()
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("ok", func(t *testing.T) {
		s, err := NewStore([]*core.Concept{{Label: "Angina", Vector: []float32{1, 0}}, {Label: "Migraine", Vector: []float32{0, 1}}})
		require.NoError(t, err)
		idx, err := s.BuildIndex()
		require.NoError(t, err)
		assert.Equal(t, 2, idx.Dimension())
		assert.Equal(t, 2, idx.Len())
	})
}

func TestLoadJSONL(t *testing.T) {
	input := `{"id":"I20","label":"Angina","synonyms":"chest pain|angina pectoris","system":"cardio","specialists":["Cardiologist"],"recommended_tests":[{"name":"ECG"}]}

{"label":"Migraine","synonyms":["headache"]}
`
	concepts, err := LoadJSONL(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, concepts, 2)

	assert.Equal(t, "I20", concepts[0].Id)
	assert.Equal(t, core.Synonyms{"chest pain", "angina pectoris"}, concepts[0].Synonyms)
	assert.Equal(t, []string{"Cardiologist"}, concepts[0].Specialists)
	assert.Equal(t, "ECG", concepts[0].RecommendedTests[0].Name)
	assert.Equal(t, core.Synonyms{"headache"}, concepts[1].Synonyms)

	_, err = LoadJSONL(strings.NewReader("{\"label\":\"ok\"}\nnot json\n"))
	assert.ErrorIs(t, err, ErrMalformedRecord)
	assert.Contains(t, err.Error(), "line 2")
}

func TestFlatIndex_Search(t *testing.T) {
	idx, err := NewFlatIndex([][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.6, 0.8, 0},
		{1, 0, 0},
	})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("ordered by score with stable ties", func(t *testing.T) {
		matches, err := idx.Search(ctx, []float32{1, 0, 0}, 3)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, 0, matches[0].Index)
		assert.Equal(t, 3, matches[1].Index)
		assert.Equal(t, 2, matches[2].Index)
		assert.InDelta(t, 0.6, matches[2].Score, 1e-6)
	})

	t.Run("k larger than index", func(t *testing.T) {
		matches, err := idx.Search(ctx, []float32{0, 1, 0}, 30)
		require.NoError(t, err)
		assert.Len(t, matches, 4)
		assert.Equal(t, 1, matches[0].Index)
	})

	t.Run("zero k", func(t *testing.T) {
		matches, err := idx.Search(ctx, []float32{0, 1, 0}, 0)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := idx.Search(ctx, []float32{1, 0}, 3)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := idx.Search(cctx, []float32{1, 0, 0}, 3)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewFlatIndex_Errors(t *testing.T) {
	_, err := NewFlatIndex(nil)
	assert.ErrorIs(t, err, ErrIndexMissing)

	_, err = NewFlatIndex([][]float32{{}})
	assert.ErrorIs(t, err, ErrIndexMissing)
}
