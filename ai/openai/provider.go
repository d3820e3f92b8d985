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


package openai

import (
	"log/slog"
	"net/http"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/medimatch/ai"
)

// Provider implements ai.AIProvider over OpenAI-compatible HTTP APIs.
type Provider struct {
	embedder   *Embedder
	classifier *Classifier
	logger     *slog.Logger
}

// NewProvider validates config and creates the embedder and the entailment
// classifier. A nil config uses ai.DefaultConfig. The config is copied.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if config == nil {
		config = ai.DefaultConfig()
	}
	cfg := *config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(&cfg)
	if err != nil {
		return nil, err
	}
	classifier, err := newClassifier(&cfg)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")
	logger.Debug("provider ready",
		"embeddingHost", cfg.EmbeddingHost, "embeddingModel", cfg.EmbeddingModel,
		"classifierHost", cfg.ClassifierHost, "classifierModel", cfg.ClassifierModel)

	return &Provider{
		embedder:   embedder,
		classifier: classifier,
		logger:     logger,
	}, nil
}

// newClient creates a langchaingo client for host with the configured token
// and request timeout.
func newClient(config *ai.Config, host string, opts ...openai.Option) (*openai.LLM, error) {
	opts = append([]openai.Option{
		openai.WithBaseURL(host),
		openai.WithToken(config.Token()),
	}, opts...)
	if config.RequestTimeout > 0 {
		opts = append(opts, openai.WithHTTPClient(&http.Client{Timeout: config.RequestTimeout}))
	}
	return openai.New(opts...)
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Classifier returns the entailment classification service.
func (p *Provider) Classifier() ai.EntailmentClassifier {
	return p.classifier
}

// Close is a no-op; the clients hold no connections beyond the shared
// HTTP transport.
func (p *Provider) Close() error {
	p.logger.Debug("closing provider")
	return nil
}
