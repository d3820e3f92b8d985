package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// ErrPhrasebookHeader is returned when a phrasebook lacks the pattern or
// replacement column.
var ErrPhrasebookHeader = errors.New("phrasebook needs pattern and replacement columns")

// Phrase replaces every whole-word, case-insensitive occurrence of Pattern
// with Replacement.
type Phrase struct {
	Pattern     string
	Replacement string
}

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

func compile(phrases []Phrase) []rewrite {
	out := make([]rewrite, 0, len(phrases))
	for _, p := range phrases {
		pattern := strings.TrimSpace(p.Pattern)
		repl := strings.TrimSpace(p.Replacement)
		if pattern == "" || repl == "" {
			continue
		}
		out = append(out, rewrite{
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(pattern) + `\b`),
			repl: strings.ReplaceAll(repl, "$", "$$"),
		})
	}
	return out
}

// ReadPhrasebook decodes a CSV phrasebook with a header row naming the
// pattern and replacement columns. Rows missing either value are skipped.
func ReadPhrasebook(r io.Reader) ([]Phrase, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	patternCol, replCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "pattern":
			patternCol = i
		case "replacement":
			replCol = i
		}
	}
	if patternCol < 0 || replCol < 0 {
		return nil, fmt.Errorf("%w: got %v", ErrPhrasebookHeader, header)
	}

	var phrases []Phrase
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if patternCol >= len(row) || replCol >= len(row) {
			continue
		}
		p := Phrase{
			Pattern:     strings.TrimSpace(row[patternCol]),
			Replacement: strings.TrimSpace(row[replCol]),
		}
		if p.Pattern == "" || p.Replacement == "" {
			continue
		}
		phrases = append(phrases, p)
	}
	return phrases, nil
}

// LoadPhrasebook reads a CSV phrasebook from path.
func LoadPhrasebook(path string) ([]Phrase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPhrasebook(f)
}
