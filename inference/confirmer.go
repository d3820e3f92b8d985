package inference

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/medimatch/ai"
	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/lexical"
)

// LexicalScore is the entailment and margin assigned to a lexically
// confirmed candidate.
const LexicalScore float32 = 0.999

// Hypothesis returns the entailment hypothesis for a concept label.
func Hypothesis(label string) string {
	return "The patient has " + label + "."
}

// Confirmer decides, per candidate, whether the input supports the concept.
type Confirmer struct {
	classifier ai.EntailmentClassifier
	matcher    *lexical.Matcher
	threshold  float32
	marginMin  float32
	strict     bool
	timeout    time.Duration
	pool       *ants.Pool
	logger     *slog.Logger
}

// NewConfirmer creates a confirmer with a bounded classifier worker pool.
// The caller must Release it.
func NewConfirmer(classifier ai.EntailmentClassifier, matcher *lexical.Matcher, cfg Config, logger *slog.Logger) (*Confirmer, error) {
	if classifier == nil {
		return nil, ErrClassifierRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	size := cfg.Concurrency
	if size == 0 {
		size = max(runtime.NumCPU()/2, 1)
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	return &Confirmer{
		classifier: classifier,
		matcher:    matcher,
		threshold:  cfg.Threshold,
		marginMin:  cfg.MarginMin,
		strict:     cfg.StrictExactWins,
		timeout:    cfg.ClassifierTimeout,
		pool:       pool,
		logger:     logger.With("component", "confirmer"),
	}, nil
}

// Confirm fills the entailment fields and verdict of every candidate.
// Candidates are judged independently; a classifier failure on one never
// affects another, and the slice order is left untouched.
func (c *Confirmer) Confirm(ctx context.Context, premise string, candidates []*core.Candidate) {
	var wg sync.WaitGroup
	for _, cand := range candidates {
		lexicalHit := c.matcher.Matches(premise, cand.Index)
		if lexicalHit && c.strict {
			cand.EntailmentScore = LexicalScore
			cand.Margin = LexicalScore
			cand.FinalScore = LexicalScore
			cand.Confirmation = core.LexicallyConfirmed
			cand.Kept = true
			continue
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			c.judge(ctx, premise, cand, lexicalHit)
		}
		if err := c.pool.Submit(task); err != nil {
			c.logger.Warn("classifier pool unavailable, judging inline", "err", err)
			task()
		}
	}
	wg.Wait()
}

func (c *Confirmer) judge(ctx context.Context, premise string, cand *core.Candidate, lexicalHit bool) {
	hypothesis := Hypothesis(cand.Concept.Label)

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	e, err := c.entail(callCtx, premise, hypothesis)
	if err != nil {
		c.logger.Warn("classifier unavailable, using retrieval score",
			"label", cand.Concept.Label, "err", err)
		cand.EntailmentScore = cand.RetrievalScore
		cand.Margin = 0
		cand.Confirmation = core.ClassifierUnavailable
	} else {
		cand.EntailmentScore = e.Entailment
		cand.Margin = e.Margin()
		cand.Confirmation = core.Unconfirmed
		if c.passes(cand) {
			cand.Confirmation = core.Entailed
		}
	}
	cand.FinalScore = cand.EntailmentScore

	if lexicalHit {
		cand.Confirmation = core.LexicallyConfirmed
	}
	cand.Kept = lexicalHit || c.passes(cand)
}

// entail calls the classifier and validates its probabilities. A panic
// inside the classifier is returned as ErrClassifierPanic.
func (c *Confirmer) entail(ctx context.Context, premise, hypothesis string) (e ai.Entailment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrClassifierPanic, r)
		}
	}()

	e, err = c.classifier.Entail(ctx, premise, hypothesis)
	if err == nil {
		err = e.Validate()
	}
	return e, err
}

func (c *Confirmer) passes(cand *core.Candidate) bool {
	return cand.EntailmentScore >= c.threshold && cand.Margin >= c.marginMin
}

// Release stops the worker pool.
func (c *Confirmer) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}
