package medimatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/medimatch/ai"
	"github.com/poiesic/medimatch/catalog"
	"github.com/poiesic/medimatch/config"
	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/inference"
	"github.com/poiesic/medimatch/normalize"
	"github.com/poiesic/medimatch/search"
	"github.com/poiesic/medimatch/storage"
	"github.com/poiesic/medimatch/storage/badger"
	"github.com/poiesic/medimatch/triage"
)

// Catalogue names.
const (
	ConceptsCatalog = "concepts"
	DiseasesCatalog = "diseases"
)

// Assistant answers symptom queries against the catalogues stored in a database.
type Assistant struct {
	backend      *badger.Backend
	concepts     storage.ConceptRepository
	infos        storage.CatalogInfoRepository
	provider     ai.AIProvider
	ownsProvider bool
	normalizer   *normalize.Normalizer
	symptoms     *inference.Engine
	diseases     *inference.Engine
	diseaseTopK  int
	logger       *slog.Logger
}

// Option configures an Assistant.
type Option func(*options)

type options struct {
	config   *config.Config
	provider ai.AIProvider
	monitor  search.RetrievalMonitor
	logger   *slog.Logger
}

// WithConfig sets the configuration.
// Default is config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithProvider sets the AI provider. The caller keeps ownership and must
// close it. Default is the provider named by the configuration.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithRetrievalMonitor observes symptom retrievals.
func WithRetrievalMonitor(monitor search.RetrievalMonitor) Option {
	return func(o *options) {
		o.monitor = monitor
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open opens the database at path and builds the inference engines over its
// catalogues. The concepts catalogue is required; the diseases catalogue is
// loaded when it has been indexed.
func Open(path string, opts ...Option) (*Assistant, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.config == nil {
		o.config = config.Default()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	cfg := o.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	concepts, infos, backend, err := badger.OpenRepositories(path)
	if err != nil {
		return nil, err
	}

	a := &Assistant{
		backend:     backend,
		concepts:    concepts,
		infos:       infos,
		provider:    o.provider,
		diseaseTopK: cfg.DiseaseTopK,
		logger:      o.logger.With("component", "assistant"),
	}
	if err := a.init(cfg, o.monitor); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Assistant) init(cfg *config.Config, monitor search.RetrievalMonitor) error {
	ctx := context.Background()

	var normOpts []normalize.Option
	normOpts = append(normOpts, normalize.WithLogger(a.logger))
	if cfg.Phrasebook != "" {
		phrases, err := normalize.LoadPhrasebook(cfg.Phrasebook)
		if err != nil {
			return err
		}
		normOpts = append(normOpts, normalize.WithPhrasebook(phrases))
	}
	normalizer, err := normalize.NewNormalizer(normOpts...)
	if err != nil {
		return err
	}
	a.normalizer = normalizer

	triageEngine, err := triage.NewEngine(triage.WithLogger(a.logger), triage.WithTables(cfg.Triage))
	if err != nil {
		return err
	}

	info, err := a.infos.LoadCatalogInfo(ctx, ConceptsCatalog)
	if err != nil {
		return err
	}
	if info == nil {
		return fmt.Errorf("%w: run the index command first", ErrCatalogMissing)
	}

	if a.provider == nil {
		provider, err := cfg.NewProvider()
		if err != nil {
			return err
		}
		a.provider = provider
		a.ownsProvider = true
	}

	engineOpts := []inference.Option{
		inference.WithLogger(a.logger),
		inference.WithConfig(cfg.Engine),
		inference.WithTriage(triageEngine),
	}
	if monitor != nil {
		engineOpts = append(engineOpts, inference.WithRetrievalMonitor(monitor))
	}
	if a.symptoms, err = a.loadEngine(ctx, ConceptsCatalog, cfg.Index, engineOpts...); err != nil {
		return err
	}

	info, err = a.infos.LoadCatalogInfo(ctx, DiseasesCatalog)
	if err != nil {
		return err
	}
	if info != nil {
		if a.diseases, err = a.loadEngine(ctx, DiseasesCatalog, cfg.Index,
			inference.WithLogger(a.logger),
			inference.WithConfig(cfg.Engine),
			inference.WithTriage(triageEngine)); err != nil {
			return err
		}
	}

	a.logger.Info("assistant ready", "diseases", a.diseases != nil, "index", cfg.Index)
	return nil
}

// loadEngine builds an inference engine over a stored catalogue.
func (a *Assistant) loadEngine(ctx context.Context, name, indexKind string, opts ...inference.Option) (*inference.Engine, error) {
	concepts, err := a.concepts.GetAllConcepts(ctx, name)
	if err != nil {
		return nil, err
	}
	for i, c := range concepts {
		if c.Ordinal != i {
			return nil, fmt.Errorf("%w: %s has ordinal %d at position %d", ErrCatalogInconsistent, name, c.Ordinal, i)
		}
	}

	store, err := catalog.NewStore(concepts, catalog.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("catalogue %s: %w", name, err)
	}

	var index search.VectorIndex
	switch indexKind {
	case config.IndexBadger:
		if index, err = badger.NewCatalogIndex(a.concepts, name); err != nil {
			return nil, err
		}
	default:
		flat, err := store.BuildIndex()
		if err != nil {
			return nil, fmt.Errorf("catalogue %s: %w", name, err)
		}
		index = flat
	}

	a.logger.Debug("catalogue loaded", "catalog", name, "concepts", store.Len())
	return inference.NewEngine(store, index, a.provider, opts...)
}

// Predict normalizes raw symptom text, runs inference over the concepts
// catalogue and attaches the nearest diseases. Diseases already predicted as
// concepts are left out. A failed disease lookup is reported in DiseaseError.
func (a *Assistant) Predict(ctx context.Context, raw string) (*core.Report, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrSymptomsRequired
	}

	normalized := a.normalizer.Normalize(raw)
	result := a.symptoms.Infer(ctx, normalized)

	var diseases []core.PredictionItem
	var lookupErr error
	if a.diseases != nil {
		diseases, lookupErr = a.diseases.Lookup(ctx, normalized, a.diseaseTopK)
		if lookupErr != nil {
			a.logger.Warn("disease lookup failed", "err", lookupErr)
		}
	}
	return newReport(result, diseases, lookupErr), nil
}

// Infer runs inference over the concepts catalogue and returns every
// candidate with its intermediate scores.
func (a *Assistant) Infer(ctx context.Context, raw string) (*core.InferenceResult, []*core.Candidate) {
	return a.symptoms.Explain(ctx, a.normalizer.Normalize(raw))
}

// Lookup returns the k concepts of a catalogue nearest to raw, without
// confirmation.
func (a *Assistant) Lookup(ctx context.Context, catalogName, raw string, k int) ([]core.PredictionItem, error) {
	engine := a.symptoms
	if catalogName == DiseasesCatalog {
		engine = a.diseases
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: %s", ErrCatalogMissing, catalogName)
	}
	return engine.Lookup(ctx, a.normalizer.Normalize(raw), k)
}

// Normalize returns the normalized form of raw.
func (a *Assistant) Normalize(raw string) string {
	return a.normalizer.Normalize(raw)
}

// Catalogs returns the info of every stored catalogue.
func (a *Assistant) Catalogs(ctx context.Context) ([]*core.CatalogInfo, error) {
	return a.infos.ListCatalogs(ctx)
}

// Close releases the engines, the provider when the Assistant created it,
// and the database.
func (a *Assistant) Close() error {
	var errs []error
	if a.symptoms != nil {
		a.symptoms.Release()
	}
	if a.diseases != nil {
		a.diseases.Release()
	}
	if a.ownsProvider && a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if err := a.concepts.Close(); err != nil {
		a.logger.Error("error closing concept repository", "err", err)
		errs = append(errs, err)
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// newReport combines an inference result with the disease lookup, dropping
// diseases whose label was already predicted.
func newReport(result *core.InferenceResult, diseases []core.PredictionItem, lookupErr error) *core.Report {
	report := &core.Report{
		InferenceResult: *result,
		Diseases:        []core.PredictionItem{},
	}
	if lookupErr != nil {
		report.DiseaseError = lookupErr.Error()
		return report
	}

	predicted := make(map[string]bool, len(result.Predictions))
	for _, p := range result.Predictions {
		predicted[strings.ToLower(p.Label)] = true
	}
	for _, d := range diseases {
		if !predicted[strings.ToLower(d.Label)] {
			report.Diseases = append(report.Diseases, d)
		}
	}
	return report
}
