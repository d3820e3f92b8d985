package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/storage"
)

// ConceptRepository implements storage.ConceptRepository for BadgerDB.
type ConceptRepository struct {
	backend *Backend
}

var _ storage.ConceptRepository = (*ConceptRepository)(nil)

// NewConceptRepository creates a new ConceptRepository.
func NewConceptRepository(backend *Backend) (*ConceptRepository, error) {
	return &ConceptRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ConceptRepository has no resources to release.
func (r *ConceptRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ConceptRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutConcepts stores concepts under their ordinals.
func (r *ConceptRepository) PutConcepts(ctx context.Context, catalog string, concepts ...*core.Concept) error {
	if err := validateCatalog(catalog); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, concept := range concepts {
			if err := core.PrepareConcept(concept); err != nil {
				return err
			}
			if concept.Ordinal < 0 {
				return fmt.Errorf("%w: negative ordinal %d", core.ErrInvalidConcept, concept.Ordinal)
			}

			key := makeConceptKey(catalog, concept.Ordinal)
			old, err := readConcept(tx, key)
			if err != nil {
				return err
			}
			if old != nil && !strings.EqualFold(old.Label, concept.Label) {
				if err := unindexLabel(tx, catalog, old); err != nil {
					return err
				}
			}

			if err := tx.Set(key, storage.MarshalConcept(concept)); err != nil {
				return err
			}
			if err := indexLabel(tx, catalog, concept); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// UpdateConcepts replaces existing concepts.
func (r *ConceptRepository) UpdateConcepts(ctx context.Context, catalog string, concepts ...*core.Concept) error {
	if err := validateCatalog(catalog); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, concept := range concepts {
			if err := core.PrepareConcept(concept); err != nil {
				return err
			}
			key := makeConceptKey(catalog, concept.Ordinal)

			old, err := readConcept(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: %s[%d]", storage.ErrNotFound, catalog, concept.Ordinal)
			}

			if err := tx.Set(key, storage.MarshalConcept(concept)); err != nil {
				return err
			}

			// Update label index if the label changed
			if !strings.EqualFold(old.Label, concept.Label) {
				if err := unindexLabel(tx, catalog, old); err != nil {
					return err
				}
				if err := indexLabel(tx, catalog, concept); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// GetConcept retrieves a single concept by ordinal.
func (r *ConceptRepository) GetConcept(ctx context.Context, catalog string, ordinal int) (*core.Concept, error) {
	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}
	var result *core.Concept
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readConcept(tx, makeConceptKey(catalog, ordinal))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FindConceptByLabel finds a concept by its case-insensitive label.
func (r *ConceptRepository) FindConceptByLabel(ctx context.Context, catalog, label string) (*core.Concept, error) {
	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}
	var result *core.Concept
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ordinal, ok, err := lookupLabel(tx, catalog, label)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrNotFound
		}

		result, err = readConcept(tx, makeConceptKey(catalog, ordinal))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetAllConcepts retrieves every concept of a catalogue in ordinal order.
func (r *ConceptRepository) GetAllConcepts(ctx context.Context, catalog string) ([]*core.Concept, error) {
	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}
	var results []*core.Concept
	err := r.scan(ctx, catalog, func(concept *core.Concept) {
		results = append(results, concept)
	})
	return results, err
}

// CountConcepts returns the number of concepts stored for a catalogue.
func (r *ConceptRepository) CountConcepts(ctx context.Context, catalog string) (int, error) {
	if err := validateCatalog(catalog); err != nil {
		return 0, err
	}
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeConceptPrefix(catalog)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// DeleteCatalog removes every concept of a catalogue and its info record.
func (r *ConceptRepository) DeleteCatalog(ctx context.Context, catalog string) error {
	if err := validateCatalog(catalog); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		removed, err := deletePrefix(tx, makeConceptPrefix(catalog))
		if err != nil {
			return err
		}
		if _, err := deletePrefix(tx, makeLabelPrefix(catalog)); err != nil {
			return err
		}
		if err := tx.Delete(makeCatalogInfoKey(catalog)); err != nil {
			return err
		}
		r.backend.logger.Debug("catalogue deleted", "catalog", catalog, "concepts", removed)
		return tx.Commit()
	}, true)
}

// FindSimilar scores every embedded concept of a catalogue against vector.
func (r *ConceptRepository) FindSimilar(ctx context.Context, catalog string, vector []float32, minSimilarity float32, limit int) ([]core.SimilarityMatch, error) {
	if err := validateCatalog(catalog); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []core.SimilarityMatch{}, nil
	}

	var results []core.SimilarityMatch
	err := r.scan(ctx, catalog, func(concept *core.Concept) {
		// Skip concepts without embeddings
		if len(concept.Vector) == 0 {
			return
		}
		// Cosine similarity (dot product for normalized vectors)
		similarity := dotProduct(vector, concept.Vector)
		if similarity >= minSimilarity {
			results = append(results, core.SimilarityMatch{Index: concept.Ordinal, Score: similarity})
		}
	})
	if err != nil {
		return nil, err
	}

	// Scan order is ordinal order, so a stable sort breaks ties by ordinal
	slices.SortStableFunc(results, func(a, b core.SimilarityMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// scan visits the concepts of a catalogue in ordinal order.
func (r *ConceptRepository) scan(ctx context.Context, catalog string, visit func(*core.Concept)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeConceptPrefix(catalog)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var concept *core.Concept
			err := iter.Item().Value(func(val []byte) error {
				var err error
				concept, err = storage.UnmarshalConcept(val)
				return err
			})
			if err != nil {
				return err
			}
			visit(concept)
		}
		return nil
	}, false)
}

// Helper methods

// readConcept reads a concept from the transaction.
// Returns nil, nil if the key does not exist.
func readConcept(tx *badger.Txn, key []byte) (*core.Concept, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var concept *core.Concept
	err = item.Value(func(val []byte) error {
		var err error
		concept, err = storage.UnmarshalConcept(val)
		return err
	})
	return concept, err
}

// lookupLabel returns the ordinal indexed under label.
func lookupLabel(tx *badger.Txn, catalog, label string) (int, bool, error) {
	item, err := tx.Get(makeLabelKey(catalog, label))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	var ordinal int
	err = item.Value(func(val []byte) error {
		ordinal, err = decodeOrdinal(val)
		return err
	})
	return ordinal, err == nil, err
}

// indexLabel points the label index at concept unless a concept with a lower
// ordinal already owns the label.
func indexLabel(tx *badger.Txn, catalog string, concept *core.Concept) error {
	ordinal, ok, err := lookupLabel(tx, catalog, concept.Label)
	if err != nil {
		return err
	}
	if ok && ordinal < concept.Ordinal {
		return nil
	}
	return tx.Set(makeLabelKey(catalog, concept.Label), encodeOrdinal(concept.Ordinal))
}

// unindexLabel removes the label index entry of concept if it owns it.
func unindexLabel(tx *badger.Txn, catalog string, concept *core.Concept) error {
	ordinal, ok, err := lookupLabel(tx, catalog, concept.Label)
	if err != nil || !ok || ordinal != concept.Ordinal {
		return err
	}
	return tx.Delete(makeLabelKey(catalog, concept.Label))
}
