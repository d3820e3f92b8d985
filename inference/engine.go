package inference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/medimatch/ai"
	"github.com/poiesic/medimatch/catalog"
	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/resolve"
	"github.com/poiesic/medimatch/search"
	"github.com/poiesic/medimatch/triage"
)

// Engine runs symptom-to-diagnosis inference over one concept catalogue.
type Engine struct {
	cfg       Config
	catalogue search.Catalogue
	retriever *search.Retriever
	confirmer *Confirmer
	ranker    *RankFilter
	triage    *triage.Engine
	monitor   search.RetrievalMonitor
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithConfig replaces the tunables.
// Default is DefaultConfig().
func WithConfig(cfg Config) Option {
	return func(e *Engine) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		e.cfg = cfg
		return nil
	}
}

// WithTriage sets the triage engine.
// Default is a triage engine with the built-in tables.
func WithTriage(t *triage.Engine) Option {
	return func(e *Engine) error {
		e.triage = t
		return nil
	}
}

// WithRetrievalMonitor observes every retrieval.
func WithRetrievalMonitor(monitor search.RetrievalMonitor) Option {
	return func(e *Engine) error {
		e.monitor = monitor
		return nil
	}
}

// NewEngine builds an engine over catalogue and its vector index.
// Returns catalog.ErrCatalogEmpty or catalog.ErrIndexMissing when either
// resource is absent.
func NewEngine(catalogue search.Catalogue, index search.VectorIndex, provider ai.AIProvider, opts ...Option) (*Engine, error) {
	if catalogue == nil || catalogue.Len() == 0 {
		return nil, catalog.ErrCatalogEmpty
	}
	if index == nil {
		return nil, catalog.ErrIndexMissing
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	e := &Engine{
		cfg:       DefaultConfig(),
		catalogue: catalogue,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "inference")

	if e.triage == nil {
		t, err := triage.NewEngine(triage.WithLogger(e.logger))
		if err != nil {
			return nil, err
		}
		e.triage = t
	}

	retrieverOpts := []search.Option{
		search.WithLogger(e.logger),
		search.WithLexicalBoost(e.cfg.LexicalBoost),
	}
	if e.monitor != nil {
		retrieverOpts = append(retrieverOpts, search.WithMonitor(e.monitor))
	}
	retriever, err := search.NewRetriever(catalogue, index, provider.Embedder(), retrieverOpts...)
	if err != nil {
		return nil, err
	}
	e.retriever = retriever

	resolver, err := resolve.NewResolver(catalogue.Concepts(),
		resolve.WithLogger(e.logger),
		resolve.WithFuzzyCutoff(e.cfg.FuzzyCutoff))
	if err != nil {
		return nil, err
	}
	e.ranker = NewRankFilter(e.cfg, resolver)

	confirmer, err := NewConfirmer(provider.Classifier(), retriever.Matcher(), e.cfg, e.logger)
	if err != nil {
		return nil, err
	}
	e.confirmer = confirmer

	return e, nil
}

// Config returns the tunables in effect.
func (e *Engine) Config() Config {
	return e.cfg
}

// Infer runs the full pipeline on normalized text. It never fails: external
// failures degrade the result and blank input yields no predictions, while
// triage always runs.
func (e *Engine) Infer(ctx context.Context, normalized string) *core.InferenceResult {
	result, _ := e.Explain(ctx, normalized)
	return result
}

// Explain is Infer that also returns every retrieval candidate with its
// intermediate scores, in retrieval order.
func (e *Engine) Explain(ctx context.Context, normalized string) (*core.InferenceResult, []*core.Candidate) {
	result := &core.InferenceResult{
		NormalizedText: normalized,
		Predictions:    []core.PredictionItem{},
		Disclaimer:     core.Disclaimer,
	}

	candidates := []*core.Candidate{}
	if strings.TrimSpace(normalized) != "" {
		retrieved, err := e.retriever.Retrieve(ctx, normalized, e.cfg.TopK)
		if err != nil {
			e.logger.Warn("retrieval aborted", "err", err)
		} else {
			candidates = retrieved
			e.confirmer.Confirm(ctx, normalized, candidates)
			result.Predictions = e.ranker.Rank(candidates)
		}
	}

	labels := make([]string, len(result.Predictions))
	for i, p := range result.Predictions {
		labels[i] = p.Label
	}
	result.Triage = e.triage.Classify(normalized, labels)

	e.logger.Debug("inference complete",
		"candidates", len(candidates),
		"predictions", len(result.Predictions),
		"triage", result.Triage.Level)
	return result, candidates
}

// Lookup returns the raw top-k vector matches for text with their metadata,
// without confirmation or thresholds. Score and RetrievalSim carry the
// vector similarity; System is the concept's own, possibly empty.
func (e *Engine) Lookup(ctx context.Context, text string, k int) ([]core.PredictionItem, error) {
	if strings.TrimSpace(text) == "" {
		return []core.PredictionItem{}, nil
	}

	matches, err := e.retriever.Nearest(ctx, text, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	items := make([]core.PredictionItem, 0, len(matches))
	for _, m := range matches {
		c := e.catalogue.Concept(m.Index)
		items = append(items, core.PredictionItem{
			Label:            c.Label,
			Score:            m.Score,
			System:           c.System,
			Description:      c.Description,
			RetrievalSim:     m.Score,
			Specialists:      cloneOrEmpty(c.Specialists),
			RecommendedTests: cloneOrEmpty(c.RecommendedTests),
		})
	}
	return items, nil
}

// Release stops the classifier worker pool. The engine must not be used
// afterwards.
func (e *Engine) Release() {
	e.confirmer.Release()
}
