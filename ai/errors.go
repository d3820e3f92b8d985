package ai

import "errors"

var (
	// ErrMalformedEntailment is returned when a classifier produces
	// probabilities that are not a valid distribution.
	ErrMalformedEntailment = errors.New("malformed entailment probabilities")

	// ErrInvalidConfig is returned when a provider configuration is incomplete.
	ErrInvalidConfig = errors.New("invalid ai config")

	// ErrEmptyEmbedding is returned when an embedder produces no vector.
	ErrEmptyEmbedding = errors.New("empty embedding")
)
