package inference

import (
	"fmt"
	"time"
)

// Config holds the engine tunables.
type Config struct {
	// TopK is the number of vector neighbours considered per call.
	// Default: 30
	TopK int `yaml:"top_k"`

	// Threshold is the minimum entailment probability for a classifier-confirmed
	// candidate. Default: 0.75
	Threshold float32 `yaml:"threshold"`

	// MarginMin is the minimum lead of entailment over the stronger competing
	// class. Default: 0.15
	MarginMin float32 `yaml:"margin_min"`

	// MinRetrievalSim drops predictions whose precise retrieval similarity is
	// lower. Default: 0.85
	MinRetrievalSim float32 `yaml:"min_retrieval_sim"`

	// LexicalBoost is added to the retrieval score of lexically matched
	// concepts. Default: 0.35
	LexicalBoost float32 `yaml:"lexical_boost"`

	// TopN caps the number of predictions. Default: 5
	TopN int `yaml:"top_n"`

	// StrictExactWins confirms lexically matched concepts without consulting
	// the classifier. Default: true
	StrictExactWins bool `yaml:"strict_exact_wins"`

	// FuzzyCutoff is the minimum partial ratio for fuzzy label resolution.
	// Default: 70
	FuzzyCutoff float64 `yaml:"fuzzy_cutoff"`

	// Concurrency bounds concurrent classifier calls. Zero picks half the CPUs.
	Concurrency int `yaml:"concurrency"`

	// ClassifierTimeout bounds each classifier call. Zero disables the limit.
	ClassifierTimeout time.Duration `yaml:"classifier_timeout"`
}

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{
		TopK:            30,
		Threshold:       0.75,
		MarginMin:       0.15,
		MinRetrievalSim: 0.85,
		LexicalBoost:    0.35,
		TopN:            5,
		StrictExactWins: true,
		FuzzyCutoff:     70,
	}
}

// Validate checks that every tunable is in range.
func (c Config) Validate() error {
	switch {
	case c.TopK < 1:
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidConfig, c.TopK)
	case c.Threshold < 0 || c.Threshold > 1:
		return fmt.Errorf("%w: threshold must be within [0,1], got %v", ErrInvalidConfig, c.Threshold)
	case c.MarginMin < -1 || c.MarginMin > 1:
		return fmt.Errorf("%w: margin_min must be within [-1,1], got %v", ErrInvalidConfig, c.MarginMin)
	case c.MinRetrievalSim < -1 || c.MinRetrievalSim > 1:
		return fmt.Errorf("%w: min_retrieval_sim must be within [-1,1], got %v", ErrInvalidConfig, c.MinRetrievalSim)
	case c.LexicalBoost < 0:
		return fmt.Errorf("%w: lexical_boost must not be negative, got %v", ErrInvalidConfig, c.LexicalBoost)
	case c.TopN < 1:
		return fmt.Errorf("%w: top_n must be positive, got %d", ErrInvalidConfig, c.TopN)
	case c.FuzzyCutoff < 0 || c.FuzzyCutoff > 100:
		return fmt.Errorf("%w: fuzzy_cutoff must be within [0,100], got %v", ErrInvalidConfig, c.FuzzyCutoff)
	case c.Concurrency < 0:
		return fmt.Errorf("%w: concurrency must not be negative, got %d", ErrInvalidConfig, c.Concurrency)
	case c.ClassifierTimeout < 0:
		return fmt.Errorf("%w: classifier_timeout must not be negative, got %v", ErrInvalidConfig, c.ClassifierTimeout)
	}
	return nil
}
