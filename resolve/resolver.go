package resolve

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/medimatch/core"
)

// DefaultFuzzyCutoff is the minimum partial ratio accepted by the fuzzy step.
const DefaultFuzzyCutoff = 70.0

// ErrInvalidCutoff is returned for a fuzzy cutoff outside [0,100].
var ErrInvalidCutoff = errors.New("fuzzy cutoff must be within [0,100]")

// Method identifies the step of the chain that produced a match.
type Method int

const (
	// MethodExact matched a label or external id.
	MethodExact Method = iota + 1
	// MethodSynonym matched a declared synonym.
	MethodSynonym
	// MethodFuzzy matched by partial ratio.
	MethodFuzzy
)

func (m Method) String() string {
	switch m {
	case MethodExact:
		return "exact"
	case MethodSynonym:
		return "synonym"
	case MethodFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Match is a resolved concept.
type Match struct {
	Concept *core.Concept
	Method  Method
	Score   float64 // 100 for exact and synonym matches
}

// Resolver maps a label back to a catalogue concept through an
// exact, synonym, fuzzy fallback chain. It is immutable once built and safe
// for concurrent use.
type Resolver struct {
	concepts  []*core.Concept
	byName    map[string]int
	bySynonym map[string]int
	phrases   []string
	owners    map[string]int
	cutoff    float64
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithFuzzyCutoff sets the minimum partial ratio for a fuzzy match.
// Default is DefaultFuzzyCutoff.
func WithFuzzyCutoff(cutoff float64) Option {
	return func(r *Resolver) error {
		if cutoff < 0 || cutoff > 100 {
			return ErrInvalidCutoff
		}
		r.cutoff = cutoff
		return nil
	}
}

// NewResolver indexes the labels, ids and synonyms of concepts.
func NewResolver(concepts []*core.Concept, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		concepts:  concepts,
		byName:    make(map[string]int, len(concepts)),
		bySynonym: make(map[string]int),
		owners:    make(map[string]int),
		cutoff:    DefaultFuzzyCutoff,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "resolver")

	for i, c := range concepts {
		if c == nil {
			continue
		}
		label := canonical(c.Label)
		if _, ok := r.byName[label]; !ok && label != "" {
			r.byName[label] = i
		}
		if id := canonical(c.Id); id != "" {
			if _, ok := r.byName[id]; !ok {
				r.byName[id] = i
			}
		}
		for _, s := range c.Synonyms {
			if s := canonical(s); s != "" {
				if _, ok := r.bySynonym[s]; !ok {
					r.bySynonym[s] = i
				}
			}
		}
		// Fuzzy phrases keep first-seen order; a shared phrase belongs to
		// the last concept declaring it.
		for _, p := range c.Phrases() {
			p = canonical(p)
			if p == "" {
				continue
			}
			if _, ok := r.owners[p]; !ok {
				r.phrases = append(r.phrases, p)
			}
			r.owners[p] = i
		}
	}

	return r, nil
}

// Resolve returns the concept best matching query. A miss is not an error.
func (r *Resolver) Resolve(query string) (Match, bool) {
	q := canonical(query)
	if q == "" {
		return Match{}, false
	}

	if i, ok := r.byName[q]; ok {
		return Match{Concept: r.concepts[i], Method: MethodExact, Score: 100}, true
	}
	if i, ok := r.bySynonym[q]; ok {
		return Match{Concept: r.concepts[i], Method: MethodSynonym, Score: 100}, true
	}

	best, bestScore := "", -1.0
	for _, p := range r.phrases {
		if s := PartialRatio(q, p); s > bestScore {
			best, bestScore = p, s
			if s == 100 {
				break
			}
		}
	}
	if best != "" && bestScore >= r.cutoff {
		r.logger.Debug("fuzzy resolution", "query", query, "phrase", best, "score", bestScore)
		return Match{Concept: r.concepts[r.owners[best]], Method: MethodFuzzy, Score: bestScore}, true
	}

	r.logger.Debug("label not resolved", "query", query, "bestScore", bestScore)
	return Match{}, false
}

func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
