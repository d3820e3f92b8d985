package onnx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sugarme/tokenizer"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/poiesic/medimatch/ai"
)

// Classifier implements ai.EntailmentClassifier with a local cross-encoder
// NLI model.
type Classifier struct {
	model  *model
	logger *slog.Logger
}

var _ ai.EntailmentClassifier = (*Classifier)(nil)

// NewClassifier loads the tokenizer and model described by cfg.
// The model output defaults to "logits".
func NewClassifier(cfg Config) (*Classifier, error) {
	cfg.applyDefaults("logits")
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.validateLabels(); err != nil {
		return nil, err
	}

	m, err := openModel(cfg)
	if err != nil {
		return nil, err
	}
	return &Classifier{
		model:  m,
		logger: slog.Default().With("component", "onnx-classifier"),
	}, nil
}

// Entail scores the (premise, hypothesis) pair.
func (c *Classifier) Entail(ctx context.Context, premise, hypothesis string) (ai.Entailment, error) {
	if err := ctx.Err(); err != nil {
		return ai.Entailment{}, err
	}

	f, err := c.model.encode(tokenizer.NewDualEncodeInput(
		tokenizer.NewInputSequence(premise),
		tokenizer.NewInputSequence(hypothesis),
	))
	if err != nil {
		return ai.Entailment{}, fmt.Errorf("tokenize pair: %w", err)
	}

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3))
	if err != nil {
		return ai.Entailment{}, err
	}
	defer out.Destroy()

	if err := c.model.run(f, out); err != nil {
		c.logger.Error("nli inference failed", "tokens", f.numTokens, "err", err)
		return ai.Entailment{}, err
	}

	result, err := orderedEntailment(out.GetData(), c.model.cfg.LabelOrder)
	if err != nil {
		return ai.Entailment{}, err
	}
	c.logger.Debug("entailment judged", "hypothesis", hypothesis, "entailment", result.Entailment)
	return result, nil
}

// Close releases the session and, with the last model, the runtime.
func (c *Classifier) Close() error {
	return c.model.close()
}

// orderedEntailment reorders raw logits to contradiction, neutral,
// entailment and applies softmax.
func orderedEntailment(logits []float32, order []int) (ai.Entailment, error) {
	if len(logits) != 3 || len(order) != 3 {
		return ai.Entailment{}, fmt.Errorf("%w: got %d logits", ai.ErrMalformedEntailment, len(logits))
	}
	return ai.EntailmentFromLogits([]float32{logits[order[0]], logits[order[1]], logits[order[2]]})
}
