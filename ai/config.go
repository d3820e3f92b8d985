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


package ai

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Default endpoint and models of a local OpenAI-compatible server.
const (
	DefaultHost            = "http://localhost:11434/v1"
	DefaultEmbeddingModel  = "embeddinggemma"
	DefaultClassifierModel = "qwen2.5:3b"
	DefaultMaxAttempts     = 3
	DefaultRequestTimeout  = 30 * time.Second
)

// Config holds the settings of the OpenAI-compatible embedding and
// entailment services.
type Config struct {
	// EmbeddingHost is the base URL of the embeddings API.
	EmbeddingHost string `yaml:"embedding_host"`

	// ClassifierHost is the base URL of the chat API used for entailment.
	ClassifierHost string `yaml:"classifier_host"`

	EmbeddingModel  string `yaml:"embedding_model"`
	ClassifierModel string `yaml:"classifier_model"`

	// APIKey is sent as the bearer token. Local servers accept any value.
	APIKey string `yaml:"api_key"`

	// MaxAttempts is how many times a classifier reply is requested before a
	// malformed answer is reported.
	MaxAttempts int `yaml:"max_attempts"`

	// RequestTimeout bounds each HTTP request; zero leaves it unbounded.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embeddings API URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) { c.EmbeddingHost = host }
}

// WithClassifierHost sets the chat API URL.
func WithClassifierHost(host string) ConfigOption {
	return func(c *Config) { c.ClassifierHost = host }
}

// WithHost points both services at the same server.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ClassifierHost = host
	}
}

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) { c.EmbeddingModel = model }
}

// WithClassifierModel sets the entailment chat model.
func WithClassifierModel(model string) ConfigOption {
	return func(c *Config) { c.ClassifierModel = model }
}

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) { c.APIKey = key }
}

// WithMaxAttempts sets the number of classifier attempts per judgment.
func WithMaxAttempts(n int) ConfigOption {
	return func(c *Config) { c.MaxAttempts = n }
}

// WithRequestTimeout bounds each HTTP request.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.RequestTimeout = d }
}

// DefaultConfig targets a local server (Ollama, LocalAI, vLLM) for both
// services.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:   DefaultHost,
		ClassifierHost:  DefaultHost,
		EmbeddingModel:  DefaultEmbeddingModel,
		ClassifierModel: DefaultClassifierModel,
		MaxAttempts:     DefaultMaxAttempts,
		RequestTimeout:  DefaultRequestTimeout,
	}
}

// NewConfig applies opts over DefaultConfig.
//
//	cfg := ai.NewConfig(
//	    ai.WithEmbeddingHost("http://localhost:11434"),
//	    ai.WithClassifierHost("https://api.openai.com/v1"),
//	    ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize appends the /v1 path OpenAI-compatible servers expect to hosts
// that lack it.
func (c *Config) Normalize() {
	c.EmbeddingHost = apiBase(c.EmbeddingHost)
	c.ClassifierHost = apiBase(c.ClassifierHost)
}

func apiBase(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return host + "/v1"
}

// Token returns the bearer token, "none" when no key is configured.
func (c *Config) Token() string {
	if c.APIKey == "" {
		return "none"
	}
	return c.APIKey
}

// Validate normalizes the configuration and reports the first problem.
func (c *Config) Validate() error {
	c.Normalize()

	for _, host := range []struct{ name, url string }{
		{"embedding_host", c.EmbeddingHost},
		{"classifier_host", c.ClassifierHost},
	} {
		if host.url == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidConfig, host.name)
		}
		if u, err := url.Parse(host.url); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s %q is not an absolute URL", ErrInvalidConfig, host.name, host.url)
		}
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: embedding_model is required", ErrInvalidConfig)
	}
	if c.ClassifierModel == "" {
		return fmt.Errorf("%w: classifier_model is required", ErrInvalidConfig)
	}
	if c.MaxAttempts < 1 || c.MaxAttempts > 10 {
		return fmt.Errorf("%w: max_attempts must be between 1 and 10", ErrInvalidConfig)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: request_timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}
