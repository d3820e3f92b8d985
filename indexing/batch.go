package indexing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/medimatch/ai"
	"github.com/poiesic/medimatch/core"
)

// StoreFunc persists a batch of freshly embedded concepts.
type StoreFunc func(ctx context.Context, concepts []*core.Concept) error

// BatchProcessor handles embedding generation for batches of concepts.
type BatchProcessor struct {
	embedder       ai.Embedder
	store          StoreFunc
	maxRetries     int
	retryBaseDelay time.Duration
	dimension      int
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(embedder ai.Embedder, store StoreFunc, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		embedder:       embedder,
		store:          store,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Dimension returns the vector dimension seen so far, or 0 before the first batch.
func (bp *BatchProcessor) Dimension() int {
	return bp.dimension
}

// Process embeds the EmbeddingText of each concept and stores the batch.
// Vectors are normalized so inner products are cosine similarities.
func (bp *BatchProcessor) Process(ctx context.Context, concepts []*core.Concept) error {
	if len(concepts) == 0 {
		return nil
	}

	texts := make([]string, len(concepts))
	for i, concept := range concepts {
		texts[i] = concept.EmbeddingText()
	}

	var embeddings [][]float32
	backoff := Backoff{Attempts: bp.maxRetries, BaseDelay: bp.retryBaseDelay}
	err := backoff.Do(ctx, func(ctx context.Context) error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(embeddings) != len(concepts) {
			return Permanent(fmt.Errorf("%w: expected %d vectors, got %d", ErrEmbeddingMismatch, len(concepts), len(embeddings)))
		}
		return nil
	})
	if errors.Is(err, ErrEmbeddingMismatch) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	for i, concept := range concepts {
		dim := len(embeddings[i])
		if dim == 0 {
			return fmt.Errorf("%w: empty vector for %q", ErrEmbeddingMismatch, concept.Label)
		}
		if bp.dimension == 0 {
			bp.dimension = dim
		}
		if dim != bp.dimension {
			return fmt.Errorf("%w: %q has %d dimensions, want %d", ErrEmbeddingMismatch, concept.Label, dim, bp.dimension)
		}
		concept.Vector = ai.NormalizeVector(embeddings[i])
	}

	if err := bp.store(ctx, concepts); err != nil {
		return fmt.Errorf("failed to store concepts: %w", err)
	}
	return nil
}
