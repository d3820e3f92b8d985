package badger

import (
	"context"
	"math"

	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/storage"
)

// CatalogIndex searches a stored catalogue directly in BadgerDB instead of
// an in-memory index. Scores are not thresholded.
type CatalogIndex struct {
	repo    storage.ConceptRepository
	catalog string
}

// NewCatalogIndex returns an index over the concepts of catalog.
func NewCatalogIndex(repo storage.ConceptRepository, catalog string) (*CatalogIndex, error) {
	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}
	return &CatalogIndex{repo: repo, catalog: catalog}, nil
}

// Search returns up to k concepts ordered by descending similarity.
func (x *CatalogIndex) Search(ctx context.Context, vector []float32, k int) ([]core.SimilarityMatch, error) {
	return x.repo.FindSimilar(ctx, x.catalog, vector, -math.MaxFloat32, k)
}
