package triage

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/lexical"
)

// Engine evaluates an ordered rule table. It is immutable once built and
// safe for concurrent use.
type Engine struct {
	rules        []core.TriageRule
	synonyms     map[string][]string
	defaultLevel string
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithRules replaces the rule table. Declared order is evaluation order.
func WithRules(rules []core.TriageRule) Option {
	return func(e *Engine) error {
		for i := range rules {
			if err := core.ValidateTriageRule(&rules[i]); err != nil {
				return fmt.Errorf("rule %d: %w", i, err)
			}
		}
		e.rules = cloneRules(rules)
		return nil
	}
}

// WithSynonyms replaces the symptom synonym table.
func WithSynonyms(synonyms map[string][]string) Option {
	return func(e *Engine) error {
		e.synonyms = cloneSynonyms(synonyms)
		return nil
	}
}

// WithDefaultLevel sets the level assigned when no rule matches.
// Default is DefaultLevel.
func WithDefaultLevel(level string) Option {
	return func(e *Engine) error {
		if strings.TrimSpace(level) == "" {
			return core.ErrEmptyTriageLevel
		}
		e.defaultLevel = level
		return nil
	}
}

// WithTables applies rules, synonyms and default level loaded from a file.
func WithTables(t *Tables) Option {
	return func(e *Engine) error {
		if t == nil {
			return nil
		}
		if len(t.Rules) > 0 {
			if err := WithRules(t.Rules)(e); err != nil {
				return err
			}
		}
		if t.Synonyms != nil {
			e.synonyms = cloneSynonyms(t.Synonyms)
		}
		if t.DefaultLevel != "" {
			e.defaultLevel = t.DefaultLevel
		}
		return nil
	}
}

// NewEngine creates an engine with the built-in tables unless overridden.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		rules:        DefaultRules(),
		synonyms:     DefaultSynonyms(),
		defaultLevel: DefaultLevel,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "triage")

	return e, nil
}

// Rules returns a copy of the rule table.
func (e *Engine) Rules() []core.TriageRule {
	return cloneRules(e.rules)
}

// Classify assigns a level to text, falling back to the predicted labels
// when no rule matches the text itself.
func (e *Engine) Classify(text string, labels []string) core.TriageResult {
	lower := strings.ToLower(text)
	inText := func(symptom string) bool {
		return lexical.ContainsAny(lower, e.expand(symptom))
	}
	if rule, cond, ok := e.firstMatch(inText); ok {
		e.logger.Debug("triage matched input", "level", rule.Level)
		return result(rule.Level, cond)
	}

	inLabels := func(symptom string) bool {
		return slices.Contains(labels, symptom)
	}
	if rule, cond, ok := e.firstMatch(inLabels); ok {
		e.logger.Debug("triage matched predictions", "level", rule.Level)
		return result(rule.Level, cond)
	}

	return core.TriageResult{Level: e.defaultLevel, Reasons: []core.TriageCondition{}}
}

// expand returns the symptom followed by its synonyms.
func (e *Engine) expand(symptom string) []string {
	return append([]string{symptom}, e.synonyms[symptom]...)
}

func (e *Engine) firstMatch(present func(string) bool) (core.TriageRule, core.TriageCondition, bool) {
	for _, rule := range e.rules {
		for _, cond := range rule.Conditions {
			if satisfied(cond, present) {
				return rule, cond, true
			}
		}
	}
	return core.TriageRule{}, core.TriageCondition{}, false
}

func satisfied(cond core.TriageCondition, present func(string) bool) bool {
	for _, s := range cond.AllOf {
		if !present(s) {
			return false
		}
	}
	if len(cond.AnyOf) == 0 {
		return true
	}
	return slices.ContainsFunc(cond.AnyOf, present)
}

func result(level string, cond core.TriageCondition) core.TriageResult {
	return core.TriageResult{
		Level: level,
		Reasons: []core.TriageCondition{{
			AllOf: cloneOrEmpty(cond.AllOf),
			AnyOf: cloneOrEmpty(cond.AnyOf),
		}},
	}
}
