package onnx

import (
	"fmt"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	envMu   sync.Mutex
	envRefs int
)

// acquireEnvironment initializes ONNX Runtime on first use.
func acquireEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}
	envRefs++
	return nil
}

// releaseEnvironment destroys ONNX Runtime when the last model is closed.
func releaseEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		return nil
	}
	envRefs--
	if envRefs == 0 {
		return ort.DestroyEnvironment()
	}
	return nil
}

// features are the tokenized model inputs for one sequence or pair.
type features struct {
	ids       []int64
	mask      []int64
	typeIDs   []int64
	numTokens int
}

// columns returns the first n feature columns in the order of the configured names.
func (f *features) columns(n int) [][]int64 {
	cols := [][]int64{f.ids, f.mask, f.typeIDs}
	return cols[:n]
}

// newFeatures converts a tokenizer encoding, truncating to maxLen while
// keeping the closing special token.
func newFeatures(ids, mask, typeIDs []int, maxLen int) *features {
	n := len(ids)
	keep := func(src []int) []int64 {
		out := make([]int64, 0, min(n, maxLen))
		if len(src) != n {
			src = make([]int, n)
		}
		if n <= maxLen {
			for _, v := range src {
				out = append(out, int64(v))
			}
			return out
		}
		for _, v := range src[:maxLen-1] {
			out = append(out, int64(v))
		}
		return append(out, int64(src[n-1]))
	}

	if len(mask) != n {
		mask = make([]int, n)
		for i := range mask {
			mask[i] = 1
		}
	}

	f := &features{
		ids:     keep(ids),
		mask:    keep(mask),
		typeIDs: keep(typeIDs),
	}
	f.numTokens = len(f.ids)
	return f
}

// model bundles a session, its tokenizer and the configuration that built them.
type model struct {
	cfg       Config
	session   *ort.DynamicAdvancedSession
	tokenizer *tokenizer.Tokenizer
	tokMu     sync.Mutex
}

func openModel(cfg Config) (*model, error) {
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", cfg.TokenizerPath, err)
	}

	if err := acquireEnvironment(cfg.SharedLibraryPath); err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, cfg.InputNames, []string{cfg.OutputName}, nil)
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("open model %s: %w", cfg.ModelPath, err)
	}

	return &model{cfg: cfg, session: session, tokenizer: tk}, nil
}

func (m *model) encode(input tokenizer.EncodeInput) (*features, error) {
	m.tokMu.Lock()
	enc, err := m.tokenizer.Encode(input, true)
	m.tokMu.Unlock()
	if err != nil {
		return nil, err
	}
	return newFeatures(enc.Ids, enc.AttentionMask, enc.TypeIds, m.cfg.MaxSeqLen), nil
}

// run feeds f to the session and fills output.
func (m *model) run(f *features, output ort.Value) error {
	shape := ort.NewShape(1, int64(f.numTokens))
	cols := f.columns(len(m.cfg.InputNames))

	inputs := make([]ort.Value, 0, len(cols))
	defer func() {
		for _, in := range inputs {
			in.Destroy()
		}
	}()
	for _, col := range cols {
		t, err := ort.NewTensor(shape, col)
		if err != nil {
			return err
		}
		inputs = append(inputs, t)
	}

	return m.session.Run(inputs, []ort.Value{output})
}

func (m *model) close() error {
	if m.session != nil {
		if err := m.session.Destroy(); err != nil {
			return err
		}
		m.session = nil
	}
	return releaseEnvironment()
}
