package indexing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/poiesic/medimatch/ai"
	"github.com/poiesic/medimatch/catalog"
	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/storage"
)

// Builder imports JSONL catalogues into storage.
type Builder struct {
	concepts storage.ConceptRepository
	infos    storage.CatalogInfoRepository
	embedder ai.Embedder
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewBuilder creates a new catalogue builder.
// progress: where to write progress output (typically os.Stderr)
func NewBuilder(concepts storage.ConceptRepository, infos storage.CatalogInfoRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Builder, error) {
	if concepts == nil || infos == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Builder{
		concepts: concepts,
		infos:    infos,
		embedder: embedder,
		config:   config.withDefaults(),
		progress: progress,
		logger:   slog.Default().With("component", "indexing"),
	}, nil
}

// BuildFile imports the JSONL catalogue at path under name.
func (b *Builder) BuildFile(ctx context.Context, name, path string) (*core.CatalogInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return b.Build(ctx, name, f)
}

// Build replaces the catalogue called name with the concepts read from r.
// Every record is validated before anything is written. The catalogue info
// is saved last, so an interrupted build leaves no info record behind.
func (b *Builder) Build(ctx context.Context, name string, r io.Reader) (*core.CatalogInfo, error) {
	records, err := catalog.LoadJSONL(r)
	if err != nil {
		return nil, err
	}
	store, err := catalog.NewStore(records, catalog.WithLogger(b.logger))
	if err != nil {
		return nil, err
	}

	if err := b.concepts.DeleteCatalog(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to clear catalogue %q: %w", name, err)
	}

	total := store.Len()
	fmt.Fprintf(b.progress, "Indexing %d concepts into %q (batch size: %d)\n", total, name, b.config.BatchSize)

	processor := NewBatchProcessor(b.embedder, func(ctx context.Context, concepts []*core.Concept) error {
		return b.concepts.PutConcepts(ctx, name, concepts...)
	}, b.config.MaxRetries, b.config.RetryDelay)

	tracker := NewProgressTracker(b.progress, name, total, b.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = ForEachBatch(ctx, store.Concepts(), b.config.BatchSize, func(batch []*core.Concept) error {
		if err := processor.Process(ctx, batch); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		processed += len(batch)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		b.logger.Error("catalogue build failed", "catalog", name, "processed", processed, "err", err)
		return nil, err
	}
	tracker.Finish()

	info := &core.CatalogInfo{
		Name:           name,
		Concepts:       total,
		Dimension:      processor.Dimension(),
		EmbeddingModel: b.config.EmbeddingModel,
	}
	if err := b.infos.SaveCatalogInfo(ctx, info); err != nil {
		return nil, err
	}

	fmt.Fprintf(b.progress, "Catalogue %q ready: %d concepts, dimension %d\n", name, total, info.Dimension)
	b.logger.Info("catalogue built", "catalog", name, "concepts", total, "dimension", info.Dimension, "elapsed", tracker.Elapsed())
	return info, nil
}
