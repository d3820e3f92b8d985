package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medimatch/ai/mock"
	"github.com/poiesic/medimatch/catalog"
	"github.com/poiesic/medimatch/core"
)

const query = "I have chest pain"

var errEmbed = errors.New("embedding service down")

func testCatalogue(t *testing.T) (*catalog.Store, *catalog.FlatIndex) {
	t.Helper()
	store, err := catalog.NewStore([]*core.Concept{
		{Label: "Angina", Description: "Reduced blood flow to the heart", Synonyms: core.Synonyms{"chest pain"}, Vector: []float32{1, 0, 0}},
		{Label: "Migraine", Description: "Recurrent headaches", Synonyms: core.Synonyms{"headache"}, Vector: []float32{0, 1, 0}},
		{Label: "Gastritis", Description: "Inflamed stomach lining", Vector: []float32{0, 0, 1}},
	})
	require.NoError(t, err)
	index, err := store.BuildIndex()
	require.NoError(t, err)
	return store, index
}

// keyedEmbedder embeds concept texts onto their own axis and the query onto q.
func keyedEmbedder(q []float32) *mock.MockEmbedder {
	vectors := map[string][]float32{
		query: q,
		"Angina. Reduced blood flow to the heart": {1, 0, 0},
		"Migraine. Recurrent headaches":           {0, 1, 0},
		"Gastritis. Inflamed stomach lining":      {0, 0, 1},
	}
	e := mock.NewMockEmbedder()
	e.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		if v, ok := vectors[text]; ok {
			return v, nil
		}
		return []float32{0, 0, 0}, nil
	}
	return e
}

type fakeIndex struct {
	SearchFunc func(ctx context.Context, vector []float32, k int) ([]core.SimilarityMatch, error)
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, k int) ([]core.SimilarityMatch, error) {
	return f.SearchFunc(ctx, vector, k)
}

func labels(candidates []*core.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Concept.Label
	}
	return out
}

func TestNewRetriever(t *testing.T) {
	store, index := testCatalogue(t)
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		r, err := NewRetriever(store, index, embedder)
		require.NoError(t, err)
		assert.NotNil(t, r)
		assert.Equal(t, 3, r.Matcher().Len())
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		r, err := NewRetriever(store, index, embedder, WithLogger(nil), WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, r)
	})

	t.Run("negative boost", func(t *testing.T) {
		_, err := NewRetriever(store, index, embedder, WithLexicalBoost(-0.1))
		assert.Equal(t, ErrInvalidBoost, err)
	})

	t.Run("nil catalogue", func(t *testing.T) {
		_, err := NewRetriever(nil, index, embedder)
		assert.Equal(t, ErrCatalogueRequired, err)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewRetriever(store, nil, embedder)
		assert.Equal(t, ErrIndexRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewRetriever(store, index, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestRetrieve_MergesVectorAndLexicalHits(t *testing.T) {
	store, index := testCatalogue(t)
	ctx := context.Background()

	t.Run("lexical-only concept appended", func(t *testing.T) {
		embedder := keyedEmbedder([]float32{0, 1, 0})
		r, err := NewRetriever(store, index, embedder)
		require.NoError(t, err)

		candidates, err := r.Retrieve(ctx, query, 1)
		require.NoError(t, err)
		require.Equal(t, []string{"Migraine", "Angina"}, labels(candidates))

		migraine, angina := candidates[0], candidates[1]
		assert.InDelta(t, 1.0, migraine.CoarseSimilarity, 1e-6)
		assert.InDelta(t, 1.0, migraine.HybridScore, 1e-6)
		assert.Zero(t, migraine.LexicalBoost)

		assert.Zero(t, angina.CoarseSimilarity)
		assert.InDelta(t, 0.0, angina.RetrievalScore, 1e-6)
		assert.InDelta(t, DefaultLexicalBoost, angina.LexicalBoost, 1e-6)
		assert.InDelta(t, DefaultLexicalBoost, angina.HybridScore, 1e-6)
	})

	t.Run("vector and lexical hit merged once", func(t *testing.T) {
		embedder := keyedEmbedder([]float32{0, 1, 0})
		r, err := NewRetriever(store, index, embedder)
		require.NoError(t, err)

		candidates, err := r.Retrieve(ctx, query, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"Migraine", "Angina", "Gastritis"}, labels(candidates))
	})

	t.Run("custom boost", func(t *testing.T) {
		embedder := keyedEmbedder([]float32{0, 1, 0})
		r, err := NewRetriever(store, index, embedder, WithLexicalBoost(2))
		require.NoError(t, err)

		candidates, err := r.Retrieve(ctx, query, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"Angina", "Migraine", "Gastritis"}, labels(candidates))
		assert.InDelta(t, 2.0, candidates[0].HybridScore, 1e-6)
	})

	t.Run("sorted descending", func(t *testing.T) {
		embedder := keyedEmbedder([]float32{0.6, 0.8, 0})
		r, err := NewRetriever(store, index, embedder)
		require.NoError(t, err)

		candidates, err := r.Retrieve(ctx, query, 3)
		require.NoError(t, err)
		for i := 0; i < len(candidates)-1; i++ {
			assert.GreaterOrEqual(t, candidates[i].HybridScore, candidates[i+1].HybridScore)
		}
	})
}

func TestRetrieve_Degradation(t *testing.T) {
	store, index := testCatalogue(t)
	ctx := context.Background()

	t.Run("query embedding failure keeps lexical candidates", func(t *testing.T) {
		embedder := keyedEmbedder([]float32{0, 1, 0})
		keyed := embedder.EmbedTextFunc
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i, text := range texts {
				out[i], _ = keyed(ctx, text)
			}
			return out, nil
		}
		embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
			return nil, errEmbed
		}

		r, err := NewRetriever(store, index, embedder)
		require.NoError(t, err)

		candidates, err := r.Retrieve(ctx, query, 3)
		require.NoError(t, err)
		require.Equal(t, []string{"Angina"}, labels(candidates))
		assert.InDelta(t, DefaultLexicalBoost, candidates[0].HybridScore, 1e-6)
	})

	t.Run("precise failure falls back to coarse similarity", func(t *testing.T) {
		embedder := keyedEmbedder([]float32{0.8, 0.6, 0})
		embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return nil, errEmbed
		}

		r, err := NewRetriever(store, index, embedder)
		require.NoError(t, err)

		candidates, err := r.Retrieve(ctx, query, 2)
		require.NoError(t, err)
		require.Equal(t, []string{"Angina", "Migraine"}, labels(candidates))
		assert.InDelta(t, 0.8, candidates[0].RetrievalScore, 1e-6)
		assert.InDelta(t, 0.8+DefaultLexicalBoost, candidates[0].HybridScore, 1e-6)
		assert.InDelta(t, 0.6, candidates[1].RetrievalScore, 1e-6)
	})

	t.Run("short batch counts as failure", func(t *testing.T) {
		embedder := keyedEmbedder([]float32{0.8, 0.6, 0})
		embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return [][]float32{{1, 0, 0}}, nil
		}

		r, err := NewRetriever(store, index, embedder)
		require.NoError(t, err)

		candidates, err := r.Retrieve(ctx, query, 1)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.InDelta(t, 0.8, candidates[0].RetrievalScore, 1e-6)
	})

	t.Run("nothing surfaces", func(t *testing.T) {
		failing := &fakeIndex{SearchFunc: func(context.Context, []float32, int) ([]core.SimilarityMatch, error) {
			return nil, errors.New("index offline")
		}}
		r, err := NewRetriever(store, failing, mock.NewMockEmbedder())
		require.NoError(t, err)

		candidates, err := r.Retrieve(ctx, "feeling tired", 3)
		require.NoError(t, err)
		assert.NotNil(t, candidates)
		assert.Empty(t, candidates)
	})
}

func TestNearest(t *testing.T) {
	store, _ := testCatalogue(t)
	ctx := context.Background()

	index := &fakeIndex{SearchFunc: func(context.Context, []float32, int) ([]core.SimilarityMatch, error) {
		return []core.SimilarityMatch{
			{Index: 7, Score: 0.95},
			{Index: 1, Score: 0.9},
			{Index: 1, Score: 0.5},
			{Index: -1, Score: 0.4},
			{Index: 2, Score: 0.3},
		}, nil
	}}
	r, err := NewRetriever(store, index, mock.NewMockEmbedder())
	require.NoError(t, err)

	matches, err := r.Nearest(ctx, "anything", 5)
	require.NoError(t, err)
	assert.Equal(t, []core.SimilarityMatch{{Index: 1, Score: 0.9}, {Index: 2, Score: 0.3}}, matches)

	matches, err = r.Nearest(ctx, "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrieve_ContextCanceled(t *testing.T) {
	store, index := testCatalogue(t)
	r, err := NewRetriever(store, index, keyedEmbedder([]float32{0, 1, 0}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Retrieve(ctx, query, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetrieveWithMonitor(t *testing.T) {
	store, index := testCatalogue(t)
	monitor := &testMonitor{}
	r, err := NewRetriever(store, index, keyedEmbedder([]float32{0, 1, 0}), WithMonitor(monitor))
	require.NoError(t, err)

	candidates, err := r.Retrieve(context.Background(), query, 1)
	require.NoError(t, err)

	assert.Equal(t, query, monitor.text)
	assert.Len(t, monitor.vectorMatches, 1)
	assert.Equal(t, []int{0}, monitor.lexicalHits)
	assert.True(t, monitor.precise)
	assert.Equal(t, candidates, monitor.final)
}

// testMonitor is a simple test implementation of RetrievalMonitor
type testMonitor struct {
	text          string
	vectorMatches []core.SimilarityMatch
	lexicalHits   []int
	precise       bool
	final         []*core.Candidate
}

func (m *testMonitor) Start(text string) {
	m.text = text
}

func (m *testMonitor) AfterVectorSearch(matches []core.SimilarityMatch) {
	m.vectorMatches = matches
}

func (m *testMonitor) AfterLexicalMatch(indices []int) {
	m.lexicalHits = indices
}

func (m *testMonitor) AfterRescore(_ []*core.Candidate, precise bool) {
	m.precise = precise
}

func (m *testMonitor) Finish(candidates []*core.Candidate) {
	m.final = candidates
}
