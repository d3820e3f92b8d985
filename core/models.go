package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived storage key for catalogue records.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Triage levels produced by the default rule table.
const (
	LevelUrgent    = "URGENT"
	LevelNonUrgent = "NON_URGENT"
)

// DefaultSystem is reported for concepts that carry no system/category.
const DefaultSystem = "general"

// Disclaimer is attached to every inference result.
const Disclaimer = "Informational only; not a medical diagnosis."

// RecommendedTest is a diagnostic test suggested for a concept.
type RecommendedTest struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Concept is a catalogued medical label with its recommendation metadata.
type Concept struct {
	Id               string            `json:"id,omitempty"`
	Key              ID                `json:"-"`
	Ordinal          int               `json:"-"` // Position in the source catalogue
	Label            string            `json:"label"`
	Description      string            `json:"description,omitempty"`
	Synonyms         Synonyms          `json:"synonyms,omitempty"`
	System           string            `json:"system,omitempty"`
	Specialists      []string          `json:"specialists,omitempty"`
	RecommendedTests []RecommendedTest `json:"recommended_tests,omitempty"`
	Vector           []float32         `json:"-"` // Embedding of EmbeddingText (populated by indexing)
}

// EmbeddingText returns the text that is embedded for the concept.
func (c *Concept) EmbeddingText() string {
	return c.Label + ". " + c.Description
}

// Phrases returns the lowercased label followed by the lowercased synonyms,
// de-duplicated in insertion order. Empty entries are skipped.
func (c *Concept) Phrases() []string {
	phrases := make([]string, 0, len(c.Synonyms)+1)
	seen := make(map[string]struct{}, len(c.Synonyms)+1)
	add := func(s string) {
		p := strings.ToLower(strings.TrimSpace(s))
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		phrases = append(phrases, p)
	}
	add(c.Label)
	for _, s := range c.Synonyms {
		add(s)
	}
	return phrases
}

// SystemOrDefault returns the concept's system, or DefaultSystem when unset.
func (c *Concept) SystemOrDefault() string {
	if c.System == "" {
		return DefaultSystem
	}
	return c.System
}

// SimilarityMatch is a vector search hit against the concept catalogue.
type SimilarityMatch struct {
	Index int // Position of the concept in the catalogue
	Score float32
}

// Confirmation is the verdict reached for a retrieval candidate.
type Confirmation int

const (
	// Unconfirmed means the classifier ran and did not support the concept.
	Unconfirmed Confirmation = iota
	// LexicallyConfirmed means a concept phrase appears verbatim in the input.
	LexicallyConfirmed
	// Entailed means the classifier supported the concept with enough margin.
	Entailed
	// ClassifierUnavailable means the classifier failed and the retrieval
	// score was used in its place.
	ClassifierUnavailable
)

func (c Confirmation) String() string {
	switch c {
	case LexicallyConfirmed:
		return "lexical"
	case Entailed:
		return "entailed"
	case ClassifierUnavailable:
		return "classifier_unavailable"
	default:
		return "unconfirmed"
	}
}

// Candidate is a concept under consideration for a single inference call.
type Candidate struct {
	Index            int // Position of the concept in the catalogue
	Concept          *Concept
	CoarseSimilarity float32 // Similarity from the top-k vector search (0 for lexical-only)
	RetrievalScore   float32 // Precise cosine similarity between query and concept text
	LexicalBoost     float32
	HybridScore      float32
	EntailmentScore  float32
	Margin           float32
	FinalScore       float32
	Confirmation     Confirmation
	Kept             bool
}

// PredictionItem is a confirmed concept returned to the caller.
type PredictionItem struct {
	Label            string            `json:"label"`
	Score            float32           `json:"score"`
	System           string            `json:"system"`
	Description      string            `json:"desc"`
	RetrievalSim     float32           `json:"retrieval_sim"`
	Specialists      []string          `json:"specialists"`
	RecommendedTests []RecommendedTest `json:"recommended_tests"`
}

// TriageCondition is satisfied when every AllOf symptom is present and either
// AnyOf is empty or at least one AnyOf symptom is present.
type TriageCondition struct {
	AllOf []string `json:"all_of" yaml:"all_of"`
	AnyOf []string `json:"any_of" yaml:"any_of"`
}

// IsCatchAll reports whether the condition matches every input.
func (c TriageCondition) IsCatchAll() bool {
	return len(c.AllOf) == 0 && len(c.AnyOf) == 0
}

// TriageRule assigns Level when any of its conditions is satisfied.
type TriageRule struct {
	Level      string            `json:"level" yaml:"level"`
	Conditions []TriageCondition `json:"conditions" yaml:"conditions"`
}

// TriageResult is the urgency assigned to an input.
type TriageResult struct {
	Level   string            `json:"level"`
	Reasons []TriageCondition `json:"reasons"`
}

// InferenceResult is the outcome of a single inference call.
type InferenceResult struct {
	NormalizedText string           `json:"normalized_text"`
	Predictions    []PredictionItem `json:"predictions"`
	Triage         TriageResult     `json:"triage"`
	Disclaimer     string           `json:"disclaimer"`
}

// Report combines an inference result with the concept-only disease lookup.
type Report struct {
	InferenceResult
	Diseases     []PredictionItem `json:"diseases"`
	DiseaseError string           `json:"disease_error,omitempty"`
}

// CatalogInfo describes a stored concept catalogue.
type CatalogInfo struct {
	Name           string
	Concepts       int
	Dimension      int
	EmbeddingModel string
	UpdatedAt      time.Time
}
