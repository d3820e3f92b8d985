package lexical

import (
	"strings"

	"github.com/poiesic/medimatch/core"
)

// isWordByte reports whether b is one of the ASCII characters [a-z0-9] that
// may not border a matched phrase.
func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// containsLower reports whether phrase occurs in text with no [a-z0-9]
// neighbour on either side. Both arguments must already be lowercase.
func containsLower(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	offset := 0
	for offset <= len(text)-len(phrase) {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(phrase)
		before := start == 0 || !isWordByte(text[start-1])
		after := end == len(text) || !isWordByte(text[end])
		if before && after {
			return true
		}
		offset = start + 1
	}
	return false
}

// Contains reports whether phrase occurs in text as a whole phrase, compared
// case-insensitively. "heart" is found in "pain near heart" but not in
// "heartburning".
func Contains(text, phrase string) bool {
	return containsLower(strings.ToLower(text), strings.ToLower(strings.TrimSpace(phrase)))
}

// ContainsAny reports whether any of phrases occurs in text as a whole phrase.
func ContainsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if containsLower(lower, strings.ToLower(strings.TrimSpace(p))) {
			return true
		}
	}
	return false
}

// Matcher searches text for the labels and synonyms of a fixed concept list.
// It is immutable once built and safe for concurrent use.
type Matcher struct {
	phrases [][]string
}

// NewMatcher precomputes the phrase set of every concept.
func NewMatcher(concepts []*core.Concept) *Matcher {
	m := &Matcher{phrases: make([][]string, len(concepts))}
	for i, c := range concepts {
		if c == nil {
			continue
		}
		m.phrases[i] = c.Phrases()
	}
	return m
}

// Len returns the number of concepts known to the matcher.
func (m *Matcher) Len() int {
	return len(m.phrases)
}

// Hits returns the catalogue indices of every concept with at least one
// phrase present in text, in catalogue order.
func (m *Matcher) Hits(text string) []int {
	lower := strings.ToLower(text)
	var hits []int
	for i, phrases := range m.phrases {
		if anyLower(lower, phrases) {
			hits = append(hits, i)
		}
	}
	return hits
}

// Matches reports whether the concept at index has a phrase present in text.
// Out-of-range indices never match.
func (m *Matcher) Matches(text string, index int) bool {
	if index < 0 || index >= len(m.phrases) {
		return false
	}
	return anyLower(strings.ToLower(text), m.phrases[index])
}

func anyLower(lower string, phrases []string) bool {
	for _, p := range phrases {
		if containsLower(lower, p) {
			return true
		}
	}
	return false
}
