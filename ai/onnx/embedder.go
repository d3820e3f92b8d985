package onnx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sugarme/tokenizer"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/poiesic/medimatch/ai"
)

// Embedder implements ai.Embedder with a local sentence encoder.
type Embedder struct {
	model  *model
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder loads the tokenizer and encoder described by cfg.
// cfg.Dimension must match the encoder hidden size; the output defaults to
// "last_hidden_state".
func NewEmbedder(cfg Config) (*Embedder, error) {
	cfg.applyDefaults("last_hidden_state")
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension is required", ErrConfig)
	}

	m, err := openModel(cfg)
	if err != nil {
		return nil, err
	}
	return &Embedder{
		model:  m,
		logger: slog.Default().With("component", "onnx-embedder"),
	}, nil
}

// EmbedText embeds a single text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := e.model.encode(tokenizer.NewSingleEncodeInput(
		tokenizer.NewInputSequence(e.model.cfg.Prefix + text),
	))
	if err != nil {
		return nil, fmt.Errorf("tokenize text: %w", err)
	}

	dim := e.model.cfg.Dimension
	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(f.numTokens), int64(dim)))
	if err != nil {
		return nil, err
	}
	defer out.Destroy()

	if err := e.model.run(f, out); err != nil {
		e.logger.Error("encoder inference failed", "tokens", f.numTokens, "err", err)
		return nil, err
	}

	return meanPool(out.GetData(), f.mask, dim), nil
}

// EmbedTexts embeds texts one at a time; sequence lengths differ per text.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Close releases the session and, with the last model, the runtime.
func (e *Embedder) Close() error {
	return e.model.close()
}

// meanPool averages the token vectors selected by mask and normalizes the result.
func meanPool(hidden []float32, mask []int64, dim int) []float32 {
	pooled := make([]float32, dim)
	var count float32
	for t, m := range mask {
		if m == 0 || (t+1)*dim > len(hidden) {
			continue
		}
		row := hidden[t*dim : (t+1)*dim]
		for i, v := range row {
			pooled[i] += v
		}
		count++
	}
	if count > 0 {
		for i := range pooled {
			pooled[i] /= count
		}
	}
	return ai.NormalizeVector(pooled)
}
