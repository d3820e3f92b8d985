package search

import (
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/medimatch/ai"
	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/lexical"
)

// DefaultLexicalBoost is added to the score of every lexically matched concept.
const DefaultLexicalBoost float32 = 0.35

// Catalogue is the read-only concept list retrieval runs against.
type Catalogue interface {
	Len() int
	Concept(index int) *core.Concept
	Concepts() []*core.Concept
}

// VectorIndex finds the concepts nearest to a query vector.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, k int) ([]core.SimilarityMatch, error)
}

// Retriever provides hybrid vector and lexical candidate retrieval.
// It is safe for concurrent use.
type Retriever struct {
	catalogue Catalogue
	index     VectorIndex
	embedder  ai.Embedder
	matcher   *lexical.Matcher
	boost     float32
	monitor   RetrievalMonitor
	logger    *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithLexicalBoost sets the score added for a lexical phrase match.
// Default is DefaultLexicalBoost.
func WithLexicalBoost(boost float32) Option {
	return func(r *Retriever) error {
		if boost < 0 {
			return ErrInvalidBoost
		}
		r.boost = boost
		return nil
	}
}

// WithMonitor installs a monitor that observes every retrieval.
func WithMonitor(monitor RetrievalMonitor) Option {
	return func(r *Retriever) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		r.monitor = monitor
		return nil
	}
}

// NewRetriever creates a retriever over catalogue and its vector index.
func NewRetriever(catalogue Catalogue, index VectorIndex, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if catalogue == nil {
		return nil, ErrCatalogueRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		catalogue: catalogue,
		index:     index,
		embedder:  embedder,
		matcher:   lexical.NewMatcher(catalogue.Concepts()),
		boost:     DefaultLexicalBoost,
		monitor:   &noopMonitor{},
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "retriever")

	return r, nil
}

// Matcher returns the lexical matcher built over the catalogue.
func (r *Retriever) Matcher() *lexical.Matcher {
	return r.matcher
}

// Retrieve returns the deduplicated candidates for text, ordered by
// descending hybrid score. Embedding and index failures degrade to the
// remaining signals; only context cancellation is returned as an error.
func (r *Retriever) Retrieve(ctx context.Context, text string, k int) ([]*core.Candidate, error) {
	r.monitor.Start(text)

	// 1. Coarse vector search
	matches, err := r.Nearest(ctx, text, k)
	if err != nil {
		r.logger.Warn("vector search skipped", "err", err)
		matches = []core.SimilarityMatch{}
	}
	r.monitor.AfterVectorSearch(matches)

	candidates := make([]*core.Candidate, 0, len(matches))
	seen := make(map[int]bool, len(matches))
	for _, m := range matches {
		seen[m.Index] = true
		candidates = append(candidates, &core.Candidate{
			Index:            m.Index,
			Concept:          r.catalogue.Concept(m.Index),
			CoarseSimilarity: m.Score,
		})
	}

	// 2. Lexical hits, appended in catalogue order
	hits := r.matcher.Hits(text)
	r.monitor.AfterLexicalMatch(hits)

	lexicalSet := make(map[int]bool, len(hits))
	for _, idx := range hits {
		lexicalSet[idx] = true
		if seen[idx] {
			continue
		}
		seen[idx] = true
		candidates = append(candidates, &core.Candidate{
			Index:   idx,
			Concept: r.catalogue.Concept(idx),
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		r.monitor.Finish(candidates)
		return candidates, nil
	}

	// 3. Precise re-scoring
	precise := r.rescore(ctx, text, candidates)
	r.monitor.AfterRescore(candidates, precise)

	for _, c := range candidates {
		if lexicalSet[c.Index] {
			c.LexicalBoost = r.boost
		}
		c.HybridScore = c.RetrievalScore + c.LexicalBoost
	}

	slices.SortStableFunc(candidates, func(a, b *core.Candidate) int {
		if a.HybridScore > b.HybridScore {
			return -1
		}
		if a.HybridScore < b.HybridScore {
			return 1
		}
		return 0
	})

	r.logger.Debug("retrieved candidates",
		"vectorHits", len(matches),
		"lexicalHits", len(hits),
		"candidates", len(candidates),
		"precise", precise)
	r.monitor.Finish(candidates)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return candidates, nil
}

// Nearest embeds text and returns up to k vector matches, deduplicated and
// restricted to valid catalogue positions.
func (r *Retriever) Nearest(ctx context.Context, text string, k int) ([]core.SimilarityMatch, error) {
	if k <= 0 {
		return []core.SimilarityMatch{}, nil
	}

	embedding, err := r.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	raw, err := r.index.Search(ctx, embedding, k)
	if err != nil {
		return nil, err
	}

	n := r.catalogue.Len()
	seen := make(map[int]bool, len(raw))
	matches := make([]core.SimilarityMatch, 0, len(raw))
	for _, m := range raw {
		if m.Index < 0 || m.Index >= n || seen[m.Index] {
			continue
		}
		seen[m.Index] = true
		matches = append(matches, m)
	}
	return matches, nil
}

// rescore fills RetrievalScore with the cosine similarity between text and
// each candidate's embedding text, embedded together in one batch. On
// failure the coarse similarity is kept and false is returned.
func (r *Retriever) rescore(ctx context.Context, text string, candidates []*core.Candidate) bool {
	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, text)
	for _, c := range candidates {
		texts = append(texts, c.Concept.EmbeddingText())
	}

	vectors, err := r.embedder.EmbedTexts(ctx, texts)
	if err == nil && len(vectors) != len(texts) {
		err = ai.ErrEmptyEmbedding
	}
	if err != nil {
		r.logger.Warn("precise rescoring failed, using coarse similarity", "candidates", len(candidates), "err", err)
		for _, c := range candidates {
			c.RetrievalScore = c.CoarseSimilarity
		}
		return false
	}

	query := vectors[0]
	for i, c := range candidates {
		c.RetrievalScore = ai.CosineSimilarity(query, vectors[i+1])
	}
	return true
}
