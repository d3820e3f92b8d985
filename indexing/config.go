package indexing

import "time"

const (
	// DefaultBatchSize is the default number of concepts embedded per call
	DefaultBatchSize = 64
)

// Config holds configuration for building and reindexing catalogues.
type Config struct {
	// BatchSize is the number of concepts to embed in each call
	BatchSize int `yaml:"batch_size"`

	// ReportInterval is how often to report progress (number of concepts)
	ReportInterval int `yaml:"report_interval"`

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int `yaml:"max_retries"`

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration `yaml:"retry_delay"`

	// EmbeddingModel is recorded in the catalogue info
	EmbeddingModel string `yaml:"embedding_model"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultBatchSize,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.BatchSize <= 0 {
		out.BatchSize = d.BatchSize
	}
	if out.ReportInterval <= 0 {
		out.ReportInterval = out.BatchSize
	}
	if out.MaxRetries <= 0 {
		out.MaxRetries = d.MaxRetries
	}
	if out.RetryDelay < 0 {
		out.RetryDelay = d.RetryDelay
	}
	return &out
}
