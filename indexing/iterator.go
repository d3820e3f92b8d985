package indexing

import (
	"context"

	"github.com/poiesic/medimatch/core"
)

// ForEachBatch calls fn with consecutive batches of concepts.
// Iteration stops on first error from fn or when all concepts are processed.
// Context cancellation is checked between batches.
func ForEachBatch(ctx context.Context, concepts []*core.Concept, batchSize int, fn func([]*core.Concept) error) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for i := 0; i < len(concepts); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+batchSize, len(concepts))
		if err := fn(concepts[i:end]); err != nil {
			return err
		}
	}
	return ctx.Err()
}
