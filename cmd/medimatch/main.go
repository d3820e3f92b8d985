// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/medimatch"
	"github.com/poiesic/medimatch/ai"
	"github.com/poiesic/medimatch/config"
	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/indexing"
	"github.com/poiesic/medimatch/normalize"
	"github.com/poiesic/medimatch/storage/badger"
	"github.com/poiesic/medimatch/triage"
)

// newProvider creates the AI provider for commands that need models.
var newProvider = func(cfg *config.Config) (ai.AIProvider, error) {
	return cfg.NewProvider()
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	dbFlag := &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory (overrides the config file)",
	}
	catalogFlag := &cli.StringFlag{
		Name:  "catalog",
		Usage: "Catalogue name (concepts or diseases)",
		Value: medimatch.ConceptsCatalog,
	}
	embeddingFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL (overrides the config file)",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name (overrides the config file)",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of concepts to embed in each call",
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N concepts",
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum attempts for each embedding call",
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
		},
	}

	return &cli.App{
		Name:      "medimatch",
		Usage:     "Map free-text symptoms to medical concepts and triage levels",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"MEDIMATCH_CONFIG"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Import a JSONL catalogue into the database and embed it",
				Action: indexCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					catalogFlag,
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "JSONL catalogue, one concept per line",
						Required: true,
					},
				}, embeddingFlags...),
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed a stored catalogue with the configured embedding model",
				Action: reindexCommand,
				Flags:  append([]cli.Flag{dbFlag, catalogFlag}, embeddingFlags...),
			},
			{
				Name:      "infer",
				Usage:     "Predict concepts, diseases and triage level for symptom text",
				ArgsUsage: "<symptoms>",
				Action:    inferCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print every retrieval candidate with its scores",
					},
				},
			},
			{
				Name:      "lookup",
				Usage:     "List the catalogue concepts nearest to a text, without confirmation",
				ArgsUsage: "<text>",
				Action:    lookupCommand,
				Flags: []cli.Flag{
					dbFlag,
					catalogFlag,
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of concepts to return",
						Value: config.DefaultDiseaseTopK,
					},
				},
			},
			{
				Name:      "triage",
				Usage:     "Assign an urgency level to symptom text using rules only",
				ArgsUsage: "<symptoms>",
				Action:    triageCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "rules",
						Usage: "YAML triage tables (overrides the config file)",
					},
				},
			},
			{
				Name:   "catalogs",
				Usage:  "List the catalogues stored in the database",
				Action: catalogsCommand,
				Flags:  []cli.Flag{dbFlag},
			},
		},
	}
}

// loadConfig reads the configuration file and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.Database = db
	}
	if host := c.String("embedding-host"); host != "" {
		cfg.AI.EmbeddingHost = host
	}
	if model := c.String("embedding-model"); model != "" {
		cfg.AI.EmbeddingModel = model
	}
	if n := c.Int("batch-size"); n != 0 {
		cfg.Indexing.BatchSize = n
	}
	if n := c.Int("report-interval"); n != 0 {
		cfg.Indexing.ReportInterval = n
	}
	if n := c.Int("max-retries"); n != 0 {
		cfg.Indexing.MaxRetries = n
	}
	if d := c.Duration("retry-delay"); d != 0 {
		cfg.Indexing.RetryDelay = d
	}
	if cfg.Indexing.BatchSize < 0 || cfg.Indexing.ReportInterval < 0 || cfg.Indexing.MaxRetries < 0 {
		return nil, errors.New("batch-size, report-interval and max-retries must not be negative")
	}
	cfg.Indexing.EmbeddingModel = cfg.EmbeddingModel()
	return cfg, nil
}

func symptomsArg(c *cli.Context) (string, error) {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return "", fmt.Errorf("%s: %w", c.Command.Name, medimatch.ErrSymptomsRequired)
	}
	return text, nil
}

func indexCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	concepts, infos, backend, err := badger.OpenRepositories(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	builder, err := indexing.NewBuilder(concepts, infos, provider.Embedder(), &cfg.Indexing, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Database)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n\n", cfg.Indexing.EmbeddingModel)

	start := time.Now()
	info, err := builder.BuildFile(c.Context, c.String("catalog"), c.String("file"))
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	slog.Info("catalogue indexed", "catalog", info.Name, "concepts", info.Concepts, "elapsed", time.Since(start))
	return writeJSON(c.App.Writer, info)
}

func reindexCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	concepts, infos, backend, err := badger.OpenRepositories(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	reindexer, err := indexing.NewReindexer(concepts, infos, provider.Embedder(), &cfg.Indexing, c.App.ErrWriter)
	if err != nil {
		return err
	}
	info, err := reindexer.Run(c.Context, c.String("catalog"))
	if err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	return writeJSON(c.App.Writer, info)
}

// openAssistant opens the database named by the configuration with a
// provider the caller must close.
func openAssistant(c *cli.Context) (*medimatch.Assistant, ai.AIProvider, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	assistant, err := medimatch.Open(cfg.Database, medimatch.WithConfig(cfg), medimatch.WithProvider(provider))
	if err != nil {
		provider.Close()
		return nil, nil, err
	}
	return assistant, provider, nil
}

func inferCommand(c *cli.Context) error {
	text, err := symptomsArg(c)
	if err != nil {
		return err
	}
	assistant, provider, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer provider.Close()
	defer assistant.Close()

	if c.Bool("explain") {
		result, candidates := assistant.Infer(c.Context, text)
		return writeJSON(c.App.Writer, explanation{
			Result:     result,
			Candidates: explainCandidates(candidates),
		})
	}

	report, err := assistant.Predict(c.Context, text)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, report)
}

func lookupCommand(c *cli.Context) error {
	text, err := symptomsArg(c)
	if err != nil {
		return err
	}
	assistant, provider, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer provider.Close()
	defer assistant.Close()

	items, err := assistant.Lookup(c.Context, c.String("catalog"), text, c.Int("k"))
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, items)
}

func triageCommand(c *cli.Context) error {
	text, err := symptomsArg(c)
	if err != nil {
		return err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	tables := cfg.Triage
	if path := c.String("rules"); path != "" {
		if tables, err = triage.LoadTables(path); err != nil {
			return err
		}
	}
	var normOpts []normalize.Option
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
	engine, err := triage.NewEngine(triage.WithTables(tables))
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, engine.Classify(normalizer.Normalize(text), nil))
}

func catalogsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	_, infos, backend, err := badger.OpenRepositories(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	list, err := infos.ListCatalogs(c.Context)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*core.CatalogInfo{}
	}
	return writeJSON(c.App.Writer, list)
}

type explanation struct {
	Result     *core.InferenceResult `json:"result"`
	Candidates []candidateRow        `json:"candidates"`
}

type candidateRow struct {
	Label            string  `json:"label"`
	Confirmation     string  `json:"confirmation"`
	Kept             bool    `json:"kept"`
	CoarseSimilarity float32 `json:"coarse_similarity"`
	RetrievalScore   float32 `json:"retrieval_score"`
	LexicalBoost     float32 `json:"lexical_boost"`
	HybridScore      float32 `json:"hybrid_score"`
	EntailmentScore  float32 `json:"entailment_score"`
	Margin           float32 `json:"margin"`
	FinalScore       float32 `json:"final_score"`
}

func explainCandidates(candidates []*core.Candidate) []candidateRow {
	rows := make([]candidateRow, len(candidates))
	for i, c := range candidates {
		rows[i] = candidateRow{
			Label:            c.Concept.Label,
			Confirmation:     c.Confirmation.String(),
			Kept:             c.Kept,
			CoarseSimilarity: c.CoarseSimilarity,
			RetrievalScore:   c.RetrievalScore,
			LexicalBoost:     c.LexicalBoost,
			HybridScore:      c.HybridScore,
			EntailmentScore:  c.EntailmentScore,
			Margin:           c.Margin,
			FinalScore:       c.FinalScore,
		}
	}
	return rows
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
