package onnx

import (
	"errors"
	"fmt"
)

// ErrConfig is returned for an incomplete model configuration.
var ErrConfig = errors.New("onnx config")

// Config describes one ONNX model and its tokenizer.
type Config struct {
	// SharedLibraryPath is the onnxruntime shared library. Empty uses the
	// platform default search path.
	SharedLibraryPath string `yaml:"shared_library"`

	// ModelPath is the .onnx model file.
	ModelPath string `yaml:"model"`

	// TokenizerPath is the HuggingFace tokenizer.json file.
	TokenizerPath string `yaml:"tokenizer"`

	// MaxSeqLen bounds the number of tokens fed to the model.
	// Default: 512
	MaxSeqLen int `yaml:"max_seq_len"`

	// InputNames are the model inputs, fed in this order from input ids,
	// attention mask and token type ids.
	// Default: input_ids, attention_mask
	InputNames []string `yaml:"inputs"`

	// OutputName is the model output to read.
	OutputName string `yaml:"output"`

	// LabelOrder maps contradiction, neutral, entailment to their logit
	// positions. Classifier only. Default: 0, 1, 2
	LabelOrder []int `yaml:"label_order"`

	// Dimension is the hidden size of the encoder. Embedder only.
	Dimension int `yaml:"dimension"`

	// Prefix is prepended to every embedded text, e.g. "query: " for E5 models.
	Prefix string `yaml:"prefix"`
}

func (c *Config) applyDefaults(defaultOutput string) {
	if c.MaxSeqLen <= 0 {
		c.MaxSeqLen = 512
	}
	if len(c.InputNames) == 0 {
		c.InputNames = []string{"input_ids", "attention_mask"}
	}
	if c.OutputName == "" {
		c.OutputName = defaultOutput
	}
	if len(c.LabelOrder) == 0 {
		c.LabelOrder = []int{0, 1, 2}
	}
}

func (c *Config) validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("%w: model path is required", ErrConfig)
	}
	if c.TokenizerPath == "" {
		return fmt.Errorf("%w: tokenizer path is required", ErrConfig)
	}
	if len(c.InputNames) > 3 {
		return fmt.Errorf("%w: at most 3 inputs are supported, got %d", ErrConfig, len(c.InputNames))
	}
	if c.MaxSeqLen < 2 {
		return fmt.Errorf("%w: max sequence length must be at least 2", ErrConfig)
	}
	return nil
}

func (c *Config) validateLabels() error {
	if len(c.LabelOrder) != 3 {
		return fmt.Errorf("%w: label order needs 3 positions, got %d", ErrConfig, len(c.LabelOrder))
	}
	seen := map[int]bool{}
	for _, p := range c.LabelOrder {
		if p < 0 || p > 2 || seen[p] {
			return fmt.Errorf("%w: label order %v is not a permutation of 0,1,2", ErrConfig, c.LabelOrder)
		}
		seen[p] = true
	}
	return nil
}
