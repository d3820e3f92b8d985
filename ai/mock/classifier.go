package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/medimatch/ai"
)

// Neutral is the judgment returned by a MockClassifier without EntailFunc.
var Neutral = ai.Entailment{Contradiction: 0.1, Neutral: 0.8, Entailment: 0.1}

// MockClassifier is a test double for ai.EntailmentClassifier.
type MockClassifier struct {
	// EntailFunc is called by Entail if set.
	// If nil, every pair is judged Neutral.
	EntailFunc func(ctx context.Context, premise, hypothesis string) (ai.Entailment, error)

	callCount atomic.Int64
}

// NewMockClassifier creates a new mock classifier with default behavior.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// Entail implements ai.EntailmentClassifier.
func (m *MockClassifier) Entail(ctx context.Context, premise, hypothesis string) (ai.Entailment, error) {
	m.callCount.Add(1)

	if m.EntailFunc != nil {
		return m.EntailFunc(ctx, premise, hypothesis)
	}
	return Neutral, nil
}

// CallCount returns the number of Entail calls.
func (m *MockClassifier) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call counter and custom function.
func (m *MockClassifier) Reset() {
	m.callCount.Store(0)
	m.EntailFunc = nil
}
