package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Synonyms is the ordered synonym list of a concept.
// Catalogues may encode it either as a JSON array of strings or as a single
// "|"-separated string.
type Synonyms []string

// ParseSynonyms splits a "|"-separated synonym string, dropping blank entries.
func ParseSynonyms(s string) Synonyms {
	parts := strings.Split(s, "|")
	out := make(Synonyms, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UnmarshalJSON accepts an array of strings, a "|"-separated string, or null.
func (s *Synonyms) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*s = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "\"") {
		var joined string
		if err := json.Unmarshal(data, &joined); err != nil {
			return err
		}
		*s = ParseSynonyms(joined)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("synonyms must be a string or an array of strings: %w", err)
	}
	*s = list
	return nil
}
