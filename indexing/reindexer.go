package indexing

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/medimatch/ai"
	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/storage"
)

// Reindexer re-embeds a stored catalogue with the configured embedder.
type Reindexer struct {
	concepts storage.ConceptRepository
	infos    storage.CatalogInfoRepository
	embedder ai.Embedder
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(concepts storage.ConceptRepository, infos storage.CatalogInfoRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reindexer, error) {
	if concepts == nil || infos == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Reindexer{
		concepts: concepts,
		infos:    infos,
		embedder: embedder,
		config:   config.withDefaults(),
		progress: progress,
		logger:   slog.Default().With("component", "indexing"),
	}, nil
}

// Run re-embeds every concept of the catalogue called name.
func (r *Reindexer) Run(ctx context.Context, name string) (*core.CatalogInfo, error) {
	concepts, err := r.concepts.GetAllConcepts(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query concepts: %w", err)
	}
	total := len(concepts)
	if total == 0 {
		return nil, fmt.Errorf("%w: %q", ErrCatalogNotFound, name)
	}

	fmt.Fprintf(r.progress, "Reindexing %d concepts of %q (batch size: %d)\n", total, name, r.config.BatchSize)

	processor := NewBatchProcessor(r.embedder, func(ctx context.Context, concepts []*core.Concept) error {
		return r.concepts.UpdateConcepts(ctx, name, concepts...)
	}, r.config.MaxRetries, r.config.RetryDelay)

	tracker := NewProgressTracker(r.progress, name, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = ForEachBatch(ctx, concepts, r.config.BatchSize, func(batch []*core.Concept) error {
		if err := processor.Process(ctx, batch); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		processed += len(batch)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		r.logger.Error("reindex failed", "catalog", name, "processed", processed, "err", err)
		return nil, err
	}
	tracker.Finish()

	info, err := r.infos.LoadCatalogInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	if info == nil {
		info = &core.CatalogInfo{Name: name}
	}
	info.Concepts = total
	info.Dimension = processor.Dimension()
	if r.config.EmbeddingModel != "" {
		info.EmbeddingModel = r.config.EmbeddingModel
	}
	if err := r.infos.SaveCatalogInfo(ctx, info); err != nil {
		return nil, err
	}

	r.logger.Info("catalogue reindexed", "catalog", name, "concepts", total, "model", info.EmbeddingModel, "elapsed", tracker.Elapsed())
	return info, nil
}
