package storage

import (
	"context"

	"github.com/poiesic/medimatch/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// ConceptRepository stores the concepts of named catalogues.
type ConceptRepository interface {
	Repository

	// PutConcepts stores concepts under their Ordinal, replacing any concept
	// already stored there. Keys are derived from the label when unset.
	PutConcepts(ctx context.Context, catalog string, concepts ...*core.Concept) error

	// UpdateConcepts replaces existing concepts.
	// Returns ErrNotFound if any concept doesn't exist.
	UpdateConcepts(ctx context.Context, catalog string, concepts ...*core.Concept) error

	// GetConcept retrieves the concept at ordinal.
	// Returns ErrNotFound if the concept doesn't exist.
	GetConcept(ctx context.Context, catalog string, ordinal int) (*core.Concept, error)

	// FindConceptByLabel finds a concept by case-insensitive label.
	// Returns ErrNotFound if no matching concept exists.
	FindConceptByLabel(ctx context.Context, catalog, label string) (*core.Concept, error)

	// GetAllConcepts retrieves every concept of a catalogue in ordinal order.
	GetAllConcepts(ctx context.Context, catalog string) ([]*core.Concept, error)

	// CountConcepts returns the number of concepts in a catalogue.
	CountConcepts(ctx context.Context, catalog string) (int, error)

	// DeleteCatalog removes every concept of a catalogue and its info record.
	DeleteCatalog(ctx context.Context, catalog string) error

	// FindSimilar scores every embedded concept of a catalogue against vector.
	// Returns matches with similarity >= minSimilarity, up to limit results,
	// ordered by similarity (highest first, ties by ordinal).
	FindSimilar(ctx context.Context, catalog string, vector []float32, minSimilarity float32, limit int) ([]core.SimilarityMatch, error)
}

// CatalogInfoRepository stores catalogue build metadata.
type CatalogInfoRepository interface {
	// SaveCatalogInfo stores info, stamping UpdatedAt.
	SaveCatalogInfo(ctx context.Context, info *core.CatalogInfo) error

	// LoadCatalogInfo returns the info of a catalogue, or nil if none was saved.
	LoadCatalogInfo(ctx context.Context, name string) (*core.CatalogInfo, error)

	// ListCatalogs returns the info of every catalogue ordered by name.
	ListCatalogs(ctx context.Context) ([]*core.CatalogInfo, error)
}
