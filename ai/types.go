package ai

import (
	"fmt"
	"math"
)

// sumTolerance bounds how far a probability triple may drift from 1.
const sumTolerance = 1e-3

// Entailment holds the three-way NLI probabilities for a premise/hypothesis pair.
type Entailment struct {
	Contradiction float32 `json:"contradiction"`
	Neutral       float32 `json:"neutral"`
	Entailment    float32 `json:"entailment"`
}

// Margin returns the entailment probability minus the stronger of the two
// competing classes.
func (e Entailment) Margin() float32 {
	return e.Entailment - max(e.Contradiction, e.Neutral)
}

// Validate checks that every probability is finite, within [0,1], and that
// the three sum to 1.
func (e Entailment) Validate() error {
	var sum float64
	for _, p := range []float32{e.Contradiction, e.Neutral, e.Entailment} {
		f := float64(p)
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > 1 {
			return fmt.Errorf("%w: probability %v out of range", ErrMalformedEntailment, p)
		}
		sum += f
	}
	if math.Abs(sum-1) > sumTolerance {
		return fmt.Errorf("%w: probabilities sum to %.4f", ErrMalformedEntailment, sum)
	}
	return nil
}

// Normalized rescales the probabilities so they sum to 1. A triple with a
// non-positive sum is returned as an error.
func (e Entailment) Normalized() (Entailment, error) {
	sum := e.Contradiction + e.Neutral + e.Entailment
	if !(sum > 0) {
		return Entailment{}, fmt.Errorf("%w: probabilities sum to %v", ErrMalformedEntailment, sum)
	}
	return Entailment{
		Contradiction: e.Contradiction / sum,
		Neutral:       e.Neutral / sum,
		Entailment:    e.Entailment / sum,
	}, nil
}

// EntailmentFromLogits applies softmax to classifier logits ordered
// contradiction, neutral, entailment.
func EntailmentFromLogits(logits []float32) (Entailment, error) {
	if len(logits) != 3 {
		return Entailment{}, fmt.Errorf("%w: expected 3 logits, got %d", ErrMalformedEntailment, len(logits))
	}
	hi := max(logits[0], logits[1], logits[2])
	exp := make([]float64, 3)
	var sum float64
	for i, l := range logits {
		exp[i] = math.Exp(float64(l - hi))
		sum += exp[i]
	}
	return Entailment{
		Contradiction: float32(exp[0] / sum),
		Neutral:       float32(exp[1] / sum),
		Entailment:    float32(exp[2] / sum),
	}, nil
}
