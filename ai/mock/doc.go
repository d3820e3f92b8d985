// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder,
// ai.EntailmentClassifier, and ai.AIProvider for use in unit tests. The mocks
// allow tests to run without model runtimes and enable controlled,
// deterministic behavior. Call counters are atomic so the mocks can be shared
// by concurrent callers.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	classifier := mock.NewMockClassifier()
//	classifier.EntailFunc = func(ctx context.Context, premise, hypothesis string) (ai.Entailment, error) {
//	    return ai.Entailment{Contradiction: 0.05, Neutral: 0.05, Entailment: 0.9}, nil
//	}
//	count := classifier.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockClassifier: Judges every pair as Neutral
//   - MockProvider: Aggregates mock embedder and classifier
package mock
