package normalize

import (
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer cleans free-text symptom descriptions before inference.
// It is immutable once built and safe for concurrent use.
type Normalizer struct {
	rewrites []rewrite
	logger   *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		n.logger = logger
		return nil
	}
}

// WithPhrasebook sets the replacements applied after cleaning, in order.
func WithPhrasebook(phrases []Phrase) Option {
	return func(n *Normalizer) error {
		n.rewrites = compile(phrases)
		return nil
	}
}

// NewNormalizer creates a normalizer.
func NewNormalizer(opts ...Option) (*Normalizer, error) {
	n := &Normalizer{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}
	n.logger = n.logger.With("component", "normalizer")
	return n, nil
}

// Normalize trims and collapses whitespace, shortens runs of three or more
// repeated characters to two, folds accents and applies the phrasebook.
// The accent-folded result is returned unless it equals the folded raw
// input, in which case the unfolded cleaned text is kept.
func (n *Normalizer) Normalize(raw string) string {
	cleaned := Clean(raw)
	ascii := Fold(cleaned)

	mapped := n.apply(cleaned)
	mappedASCII := n.apply(ascii)

	if mappedASCII != Fold(raw) {
		return mappedASCII
	}
	return mapped
}

func (n *Normalizer) apply(s string) string {
	for _, rw := range n.rewrites {
		s = rw.re.ReplaceAllString(s, rw.repl)
	}
	return s
}

// Clean trims, replaces zero-width joiners with spaces, collapses whitespace
// and shortens runs of three or more case-insensitively equal characters to
// two copies of the first.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\u200d", " ")
	s = strings.Join(strings.Fields(s), " ")
	return collapseRepeats(s)
}

func collapseRepeats(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	rs := []rune(s)
	for i := 0; i < len(rs); {
		j := i + 1
		for j < len(rs) && sameFold(rs[i], rs[j]) {
			j++
		}
		if j-i >= 3 {
			b.WriteRune(rs[i])
			b.WriteRune(rs[i])
		} else {
			for _, r := range rs[i:j] {
				b.WriteRune(r)
			}
		}
		i = j
	}
	return b.String()
}

func sameFold(a, b rune) bool {
	return a == b || unicode.ToLower(a) == unicode.ToLower(b)
}

// Fold decomposes s and strips combining marks, so "café" becomes "cafe".
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
