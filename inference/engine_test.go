package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medimatch/ai"
	"github.com/poiesic/medimatch/ai/mock"
	"github.com/poiesic/medimatch/catalog"
	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/triage"
)

const (
	chestText = "I have chest pain and sweating"
	headText  = "my head is pounding"
)

var (
	strong = ai.Entailment{Contradiction: 0.02, Neutral: 0.03, Entailment: 0.95}
	fair   = ai.Entailment{Contradiction: 0.05, Neutral: 0.1, Entailment: 0.85}
)

type fixture struct {
	store      *catalog.Store
	index      *catalog.FlatIndex
	embedder   *mock.MockEmbedder
	classifier *mock.MockClassifier
	provider   ai.AIProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := catalog.NewStore([]*core.Concept{
		{
			Label:            "Angina",
			Description:      "Chest pain from reduced blood flow",
			Synonyms:         core.Synonyms{"chest pain"},
			System:           "cardiovascular",
			Specialists:      []string{"Cardiologist"},
			RecommendedTests: []core.RecommendedTest{{Name: "ECG"}},
			Vector:           []float32{1, 0, 0},
		},
		{
			Label:       "Migraine",
			Description: "Recurrent throbbing headaches",
			Synonyms:    core.Synonyms{"headache"},
			Specialists: []string{"Neurologist"},
			Vector:      []float32{0, 1, 0},
		},
		{
			Label:       "Tension headache",
			Description: "Band-like head pain",
			Vector:      []float32{0, 0.8, 0.6},
		},
	})
	require.NoError(t, err)
	index, err := store.BuildIndex()
	require.NoError(t, err)

	vectors := map[string][]float32{
		chestText: {0.9, 0.1, 0},
		headText:  {0, 0.95, 0.2},
		"Angina. Chest pain from reduced blood flow": {1, 0, 0},
		"Migraine. Recurrent throbbing headaches":    {0, 1, 0},
		"Tension headache. Band-like head pain":      {0, 0.8, 0.6},
	}
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		if v, ok := vectors[text]; ok {
			return v, nil
		}
		return []float32{0.1, 0.1, 0.1}, nil
	}
	classifier := mock.NewMockClassifier()

	return &fixture{
		store:      store,
		index:      index,
		embedder:   embedder,
		classifier: classifier,
		provider:   mock.NewMockProviderWithServices(embedder, classifier),
	}
}

func (f *fixture) engine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(f.store, f.index, f.provider, opts...)
	require.NoError(t, err)
	t.Cleanup(e.Release)
	return e
}

func entailsFor(label string, e ai.Entailment) func(context.Context, string, string) (ai.Entailment, error) {
	return func(_ context.Context, _, hypothesis string) (ai.Entailment, error) {
		if hypothesis == Hypothesis(label) {
			return e, nil
		}
		return mock.Neutral, nil
	}
}

func TestNewEngine(t *testing.T) {
	f := newFixture(t)

	t.Run("valid configuration", func(t *testing.T) {
		e := f.engine(t, WithLogger(nil))
		assert.Equal(t, DefaultConfig(), e.Config())
	})

	t.Run("nil catalogue", func(t *testing.T) {
		_, err := NewEngine(nil, f.index, f.provider)
		assert.ErrorIs(t, err, catalog.ErrCatalogEmpty)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewEngine(f.store, nil, f.provider)
		assert.ErrorIs(t, err, catalog.ErrIndexMissing)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewEngine(f.store, f.index, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TopN = 0
		_, err := NewEngine(f.store, f.index, f.provider, WithConfig(cfg))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestInfer_LexicalShortCircuit(t *testing.T) {
	f := newFixture(t)
	// The classifier rejects everything; the lexical match must still win.
	f.classifier.EntailFunc = func(context.Context, string, string) (ai.Entailment, error) {
		return ai.Entailment{Contradiction: 0.9, Neutral: 0.05, Entailment: 0.05}, nil
	}
	e := f.engine(t)

	result := e.Infer(context.Background(), chestText)

	require.Len(t, result.Predictions, 1)
	p := result.Predictions[0]
	assert.Equal(t, "Angina", p.Label)
	assert.InDelta(t, 0.999, p.Score, 1e-6)
	assert.Equal(t, "cardiovascular", p.System)
	assert.GreaterOrEqual(t, p.RetrievalSim, float32(0.85))
	assert.Equal(t, []string{"Cardiologist"}, p.Specialists)
	assert.Equal(t, []core.RecommendedTest{{Name: "ECG"}}, p.RecommendedTests)

	assert.Equal(t, core.LevelUrgent, result.Triage.Level)
	assert.Equal(t, core.Disclaimer, result.Disclaimer)
	assert.Equal(t, chestText, result.NormalizedText)

	// Angina never reached the classifier.
	assert.Equal(t, 2, f.classifier.CallCount())
}

func TestInfer_EmptyInput(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)

	for _, text := range []string{"", "   \t"} {
		result := e.Infer(context.Background(), text)
		assert.NotNil(t, result.Predictions)
		assert.Empty(t, result.Predictions)
		assert.Equal(t, core.LevelNonUrgent, result.Triage.Level)
	}
	assert.Zero(t, f.embedder.CallCount())
	assert.Zero(t, f.classifier.CallCount())
}

func TestInfer_Entailment(t *testing.T) {
	f := newFixture(t)
	f.classifier.EntailFunc = entailsFor("Migraine", strong)
	e := f.engine(t)

	result, candidates := e.Explain(context.Background(), headText)

	require.Len(t, result.Predictions, 1)
	assert.Equal(t, "Migraine", result.Predictions[0].Label)
	assert.InDelta(t, 0.95, result.Predictions[0].Score, 1e-6)
	assert.Equal(t, []string{"Neurologist"}, result.Predictions[0].Specialists)
	assert.Equal(t, []core.RecommendedTest{}, result.Predictions[0].RecommendedTests)
	assert.Equal(t, "general", result.Predictions[0].System)
	assert.Equal(t, core.LevelNonUrgent, result.Triage.Level)

	require.Len(t, candidates, 3)
	verdicts := map[string]core.Confirmation{}
	for _, c := range candidates {
		verdicts[c.Concept.Label] = c.Confirmation
	}
	assert.Equal(t, core.Entailed, verdicts["Migraine"])
	assert.Equal(t, core.Unconfirmed, verdicts["Angina"])
	assert.Equal(t, core.Unconfirmed, verdicts["Tension headache"])
}

func TestInfer_RetrievalFloor(t *testing.T) {
	f := newFixture(t)
	// Angina is entailed but sits far from the query in embedding space.
	f.classifier.EntailFunc = entailsFor("Angina", strong)
	e := f.engine(t)

	result, candidates := e.Explain(context.Background(), headText)
	assert.Empty(t, result.Predictions)

	for _, c := range candidates {
		if c.Concept.Label == "Angina" {
			assert.True(t, c.Kept)
			assert.Less(t, c.RetrievalScore, float32(0.85))
		}
	}
}

func TestInfer_SortedAndTruncated(t *testing.T) {
	f := newFixture(t)
	f.classifier.EntailFunc = func(_ context.Context, _, hypothesis string) (ai.Entailment, error) {
		switch hypothesis {
		case Hypothesis("Migraine"):
			return fair, nil
		case Hypothesis("Tension headache"):
			return strong, nil
		}
		return mock.Neutral, nil
	}

	cfg := DefaultConfig()
	cfg.MinRetrievalSim = -1
	e := f.engine(t, WithConfig(cfg))

	result := e.Infer(context.Background(), headText)
	require.Len(t, result.Predictions, 2)
	assert.Equal(t, "Tension headache", result.Predictions[0].Label)
	assert.Equal(t, "Migraine", result.Predictions[1].Label)
	for i := 0; i < len(result.Predictions)-1; i++ {
		assert.GreaterOrEqual(t, result.Predictions[i].Score, result.Predictions[i+1].Score)
	}

	cfg.TopN = 1
	top1 := f.engine(t, WithConfig(cfg))
	result = top1.Infer(context.Background(), headText)
	require.Len(t, result.Predictions, 1)
	assert.Equal(t, "Tension headache", result.Predictions[0].Label)
}

func TestInfer_ClassifierFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.classifier.EntailFunc = func(context.Context, string, string) (ai.Entailment, error) {
		return ai.Entailment{}, errors.New("nli backend down")
	}

	t.Run("not kept with default margin", func(t *testing.T) {
		e := f.engine(t)
		result, candidates := e.Explain(context.Background(), headText)
		assert.Empty(t, result.Predictions)
		for _, c := range candidates {
			assert.Equal(t, core.ClassifierUnavailable, c.Confirmation)
			assert.Equal(t, c.RetrievalScore, c.EntailmentScore)
			assert.Zero(t, c.Margin)
		}
	})

	t.Run("retrieval score stands in when margin allows", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MarginMin = 0
		e := f.engine(t, WithConfig(cfg))
		result := e.Infer(context.Background(), headText)
		require.NotEmpty(t, result.Predictions)
		assert.Equal(t, "Migraine", result.Predictions[0].Label)
		assert.Equal(t, result.Predictions[0].RetrievalSim, result.Predictions[0].Score)
	})

	t.Run("malformed probabilities", func(t *testing.T) {
		f.classifier.EntailFunc = func(context.Context, string, string) (ai.Entailment, error) {
			return ai.Entailment{Contradiction: 0.5, Neutral: 0.5, Entailment: 0.9}, nil
		}
		e := f.engine(t)
		_, candidates := e.Explain(context.Background(), headText)
		for _, c := range candidates {
			assert.Equal(t, core.ClassifierUnavailable, c.Confirmation)
		}
	})
}

func TestInfer_ClassifierPanicDegrades(t *testing.T) {
	f := newFixture(t)
	f.classifier.EntailFunc = func(_ context.Context, _, hypothesis string) (ai.Entailment, error) {
		if hypothesis == Hypothesis("Migraine") {
			panic("onnx session crashed")
		}
		return mock.Neutral, nil
	}
	cfg := DefaultConfig()
	cfg.MarginMin = 0

	assertMigraineDegraded := func(t *testing.T, result *core.InferenceResult, candidates []*core.Candidate) {
		t.Helper()
		var found bool
		for _, c := range candidates {
			if c.Concept.Label != "Migraine" {
				continue
			}
			found = true
			assert.Equal(t, core.ClassifierUnavailable, c.Confirmation)
			assert.Equal(t, c.RetrievalScore, c.EntailmentScore)
			assert.Zero(t, c.Margin)
			assert.True(t, c.Kept)
		}
		require.True(t, found)
		require.NotEmpty(t, result.Predictions)
		assert.Equal(t, "Migraine", result.Predictions[0].Label)
	}

	t.Run("pooled", func(t *testing.T) {
		e := f.engine(t, WithConfig(cfg))
		result, candidates := e.Explain(context.Background(), headText)
		assertMigraineDegraded(t, result, candidates)
	})

	t.Run("inline after pool release", func(t *testing.T) {
		e := f.engine(t, WithConfig(cfg))
		e.Release()
		var (
			result     *core.InferenceResult
			candidates []*core.Candidate
		)
		require.NotPanics(t, func() {
			result, candidates = e.Explain(context.Background(), headText)
		})
		assertMigraineDegraded(t, result, candidates)
	})
}

func TestInfer_NonStrictLexicalStillConsultsClassifier(t *testing.T) {
	f := newFixture(t)
	f.classifier.EntailFunc = entailsFor("Angina", fair)

	cfg := DefaultConfig()
	cfg.StrictExactWins = false
	e := f.engine(t, WithConfig(cfg))

	result := e.Infer(context.Background(), chestText)
	require.Len(t, result.Predictions, 1)
	assert.InDelta(t, 0.85, result.Predictions[0].Score, 1e-6)
	assert.Equal(t, 3, f.classifier.CallCount())
}

func TestInfer_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.classifier.EntailFunc = entailsFor("Migraine", strong)
	e := f.engine(t)

	first := e.Infer(context.Background(), chestText+" and "+headText)
	second := e.Infer(context.Background(), chestText+" and "+headText)
	assert.Equal(t, first, second)
}

func TestInfer_CustomTriage(t *testing.T) {
	f := newFixture(t)
	f.classifier.EntailFunc = entailsFor("Migraine", strong)

	tr, err := triage.NewEngine(triage.WithRules([]core.TriageRule{{
		Level:      "SEE_GP",
		Conditions: []core.TriageCondition{{AllOf: []string{"Migraine"}}},
	}}))
	require.NoError(t, err)
	e := f.engine(t, WithTriage(tr))

	// Phase 1 misses the text; phase 2 finds the predicted label.
	result := e.Infer(context.Background(), headText)
	assert.Equal(t, "SEE_GP", result.Triage.Level)
}

func TestLookup(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	ctx := context.Background()

	t.Run("raw top-k with metadata", func(t *testing.T) {
		items, err := e.Lookup(ctx, headText, 2)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Migraine", items[0].Label)
		assert.Equal(t, "Tension headache", items[1].Label)
		assert.Equal(t, items[0].Score, items[0].RetrievalSim)
		assert.Equal(t, []string{"Neurologist"}, items[0].Specialists)
		assert.Equal(t, []string{}, items[1].Specialists)
		assert.Empty(t, items[0].System, "system is reported as stored")
		assert.Zero(t, f.classifier.CallCount())
	})

	t.Run("blank text", func(t *testing.T) {
		items, err := e.Lookup(ctx, " ", 2)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("embedding failure", func(t *testing.T) {
		f.embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
			return nil, errors.New("offline")
		}
		_, err := e.Lookup(ctx, headText, 2)
		assert.ErrorIs(t, err, ErrLookupFailed)
	})
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"top_k", func(c *Config) { c.TopK = 0 }},
		{"threshold", func(c *Config) { c.Threshold = 1.5 }},
		{"margin_min", func(c *Config) { c.MarginMin = -2 }},
		{"min_retrieval_sim", func(c *Config) { c.MinRetrievalSim = 2 }},
		{"lexical_boost", func(c *Config) { c.LexicalBoost = -0.1 }},
		{"top_n", func(c *Config) { c.TopN = 0 }},
		{"fuzzy_cutoff", func(c *Config) { c.FuzzyCutoff = 101 }},
		{"concurrency", func(c *Config) { c.Concurrency = -1 }},
		{"classifier_timeout", func(c *Config) { c.ClassifierTimeout = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
