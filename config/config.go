// Package config loads the YAML configuration shared by the medimatch
// command and the Assistant facade.
//
// Every section is optional; missing values keep their defaults.
//
//	database: ./medimatch.db
//	provider: openai
//	index: flat
//	phrasebook: ./phrasebook.csv
//	disease_top_k: 5
//	engine:
//	  threshold: 0.8
//	ai:
//	  embedding_host: http://localhost:11434
//	  embedding_model: all-minilm
//	triage:
//	  rules:
//	    - level: URGENT
//	      conditions:
//	        - all_of: [chest pain]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/poiesic/medimatch/ai"
	"github.com/poiesic/medimatch/ai/onnx"
	"github.com/poiesic/medimatch/ai/openai"
	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/indexing"
	"github.com/poiesic/medimatch/inference"
	"github.com/poiesic/medimatch/triage"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderONNX   = "onnx"
)

// Index kinds.
const (
	// IndexFlat searches an in-memory copy of the catalogue vectors.
	IndexFlat = "flat"
	// IndexBadger scores the vectors stored in BadgerDB on every query.
	IndexBadger = "badger"
)

// DefaultDiseaseTopK is the number of diseases returned by the concept-only lookup.
const DefaultDiseaseTopK = 5

// ONNX holds the local model configuration.
type ONNX struct {
	Embedding onnx.Config `yaml:"embedding"`
	NLI       onnx.Config `yaml:"nli"`
}

// Config is the complete application configuration.
type Config struct {
	Database    string           `yaml:"database"`
	Provider    string           `yaml:"provider"`
	Index       string           `yaml:"index"`
	Phrasebook  string           `yaml:"phrasebook"`
	DiseaseTopK int              `yaml:"disease_top_k"`
	Engine      inference.Config `yaml:"engine"`
	Triage      *triage.Tables   `yaml:"triage"`
	AI          ai.Config        `yaml:"ai"`
	ONNX        ONNX             `yaml:"onnx"`
	Indexing    indexing.Config  `yaml:"indexing"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Database:    "medimatch.db",
		Provider:    ProviderOpenAI,
		Index:       IndexFlat,
		DiseaseTopK: DefaultDiseaseTopK,
		Engine:      inference.DefaultConfig(),
		AI:          *ai.DefaultConfig(),
		Indexing:    *indexing.DefaultConfig(),
	}
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.NewDecoder(bytes.NewReader(data), yaml.DisallowUnknownField()).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the YAML file at path. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderONNX:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	switch c.Index {
	case IndexFlat, IndexBadger:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIndex, c.Index)
	}
	if c.DiseaseTopK < 0 {
		return fmt.Errorf("%w: disease_top_k must not be negative", ErrInvalidConfig)
	}
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if c.Triage != nil {
		for i := range c.Triage.Rules {
			if err := core.ValidateTriageRule(&c.Triage.Rules[i]); err != nil {
				return fmt.Errorf("%w: triage rule %d: %w", ErrInvalidConfig, i, err)
			}
		}
	}
	return nil
}

// NewProvider creates the configured AI provider.
func (c *Config) NewProvider() (ai.AIProvider, error) {
	switch c.Provider {
	case ProviderOpenAI:
		aiConfig := c.AI
		return openai.NewProvider(&aiConfig)
	case ProviderONNX:
		return onnx.NewProvider(c.ONNX.Embedding, c.ONNX.NLI)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
}

// EmbeddingModel names the embedding model recorded in catalogue info.
func (c *Config) EmbeddingModel() string {
	if c.Provider == ProviderONNX {
		return c.ONNX.Embedding.ModelPath
	}
	return c.AI.EmbeddingModel
}
