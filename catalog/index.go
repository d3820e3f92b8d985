package catalog

import (
	"context"
	"fmt"
	"slices"

	"github.com/poiesic/medimatch/core"
)

// FlatIndex is an exhaustive inner-product index over a fixed set of vectors.
// For L2-normalized vectors the inner product is the cosine similarity.
type FlatIndex struct {
	vectors   [][]float32
	dimension int
}

// NewFlatIndex builds an index over vectors. Every vector must be non-empty
// and share the same dimension.
func NewFlatIndex(vectors [][]float32) (*FlatIndex, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no vectors", ErrIndexMissing)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: empty vector at 0", ErrIndexMissing)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return &FlatIndex{vectors: vectors, dimension: dim}, nil
}

// Dimension returns the vector dimension of the index.
func (x *FlatIndex) Dimension() int {
	return x.dimension
}

// Len returns the number of indexed vectors.
func (x *FlatIndex) Len() int {
	return len(x.vectors)
}

// Search returns up to k matches ordered by descending score; equal scores
// keep ascending index order.
func (x *FlatIndex) Search(ctx context.Context, vector []float32, k int) ([]core.SimilarityMatch, error) {
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d", ErrDimensionMismatch, len(vector), x.dimension)
	}
	if k <= 0 {
		return []core.SimilarityMatch{}, nil
	}

	matches := make([]core.SimilarityMatch, len(x.vectors))
	for i, v := range x.vectors {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		matches[i] = core.SimilarityMatch{Index: i, Score: DotProduct(vector, v)}
	}

	slices.SortStableFunc(matches, func(a, b core.SimilarityMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// DotProduct calculates the dot product of two vectors.
func DotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
