package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/medimatch/core"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 4 * 1024 * 1024

// Store is the in-memory concept catalogue. It is built once and is
// read-only afterwards, so it is safe for concurrent use.
type Store struct {
	concepts []*core.Concept
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore validates and canonicalizes concepts and builds a catalogue over
// them. The order of concepts is preserved and becomes each concept's Ordinal.
func NewStore(concepts []*core.Concept, opts ...Option) (*Store, error) {
	if len(concepts) == 0 {
		return nil, ErrCatalogEmpty
	}

	s := &Store{
		concepts: make([]*core.Concept, len(concepts)),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "catalog")

	seen := make(map[core.ID]struct{}, len(concepts))
	for i, c := range concepts {
		if err := core.PrepareConcept(c); err != nil {
			return nil, fmt.Errorf("concept %d: %w", i, err)
		}
		c.Ordinal = i
		s.concepts[i] = c
		if _, dup := seen[c.Key]; dup {
			s.logger.Warn("duplicate concept label", "label", c.Label, "ordinal", i)
			continue
		}
		seen[c.Key] = struct{}{}
	}

	s.logger.Debug("catalogue built", "concepts", len(s.concepts))
	return s, nil
}

// Len returns the number of concepts.
func (s *Store) Len() int {
	return len(s.concepts)
}

// Concept returns the concept at index, or nil when index is out of range.
func (s *Store) Concept(index int) *core.Concept {
	if index < 0 || index >= len(s.concepts) {
		return nil
	}
	return s.concepts[index]
}

// Concepts returns the concepts in catalogue order.
// The returned slice must not be modified.
func (s *Store) Concepts() []*core.Concept {
	return s.concepts
}

// Vectors returns the embedding of every concept in catalogue order.
// Returns ErrIndexMissing if any concept has not been embedded.
func (s *Store) Vectors() ([][]float32, error) {
	vectors := make([][]float32, len(s.concepts))
	for i, c := range s.concepts {
		if len(c.Vector) == 0 {
			return nil, fmt.Errorf("%w: concept %q has no embedding", ErrIndexMissing, c.Label)
		}
		vectors[i] = c.Vector
	}
	return vectors, nil
}

// BuildIndex builds a flat inner-product index over the concept embeddings.
func (s *Store) BuildIndex() (*FlatIndex, error) {
	vectors, err := s.Vectors()
	if err != nil {
		return nil, err
	}
	return NewFlatIndex(vectors)
}

// LoadJSONL decodes one concept per non-blank line.
func LoadJSONL(r io.Reader) ([]*core.Concept, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var concepts []*core.Concept
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var c core.Concept
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)
		}
		concepts = append(concepts, &c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return concepts, nil
}
