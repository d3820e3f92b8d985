// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// ValidateConcept validates a Concept according to domain rules.
//
// Validation rules:
//   - Label must not be empty or whitespace
//
// NOT validated (populated by indexing):
//   - Vector (can be empty until embedded)
//   - Key (derived from the label when zero)
func ValidateConcept(concept *Concept) error {
	if concept == nil {
		return fmt.Errorf("%w: concept is nil", ErrInvalidConcept)
	}

	if strings.TrimSpace(concept.Label) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConcept, ErrEmptyConceptLabel)
	}

	return nil
}

// PrepareConcept validates a concept and brings it into canonical form:
// label, id, and synonyms are trimmed, synonyms are de-duplicated
// case-insensitively keeping the first spelling, and Key is derived from the
// label when unset.
func PrepareConcept(concept *Concept) error {
	if err := ValidateConcept(concept); err != nil {
		return err
	}

	concept.Label = strings.TrimSpace(concept.Label)
	concept.Id = strings.TrimSpace(concept.Id)
	concept.Synonyms = DedupeSynonyms(concept.Synonyms)
	if concept.Key == 0 {
		concept.Key = IDFromContent(concept.Label)
	}
	return nil
}

// DedupeSynonyms trims synonyms and removes blank and case-insensitive
// duplicate entries, preserving first-occurrence order.
func DedupeSynonyms(synonyms Synonyms) Synonyms {
	if len(synonyms) == 0 {
		return synonyms
	}
	out := make(Synonyms, 0, len(synonyms))
	seen := make(map[string]struct{}, len(synonyms))
	for _, s := range synonyms {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ValidateTriageRule validates a TriageRule.
//
// Validation rules:
//   - Level must not be empty
//   - At least one condition must be declared
func ValidateTriageRule(rule *TriageRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule is nil", ErrInvalidTriageRule)
	}
	if strings.TrimSpace(rule.Level) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTriageRule, ErrEmptyTriageLevel)
	}
	if len(rule.Conditions) == 0 {
		return fmt.Errorf("%w: %w: level %s", ErrInvalidTriageRule, ErrNoTriageConditions, rule.Level)
	}
	return nil
}
