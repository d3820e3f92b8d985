package triage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/poiesic/medimatch/core"
)

// Tables is the on-disk form of the triage configuration.
//
//	default_level: NON_URGENT
//	synonyms:
//	  chest pain: [chest ache, chest tightness]
//	rules:
//	  - level: URGENT
//	    conditions:
//	      - all_of: [chest pain]
//	        any_of: [sweating]
type Tables struct {
	DefaultLevel string              `yaml:"default_level"`
	Synonyms     map[string][]string `yaml:"synonyms"`
	Rules        []core.TriageRule   `yaml:"rules"`
}

// ParseTables decodes YAML triage tables. Unknown fields are rejected.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.NewDecoder(bytes.NewReader(data), yaml.DisallowUnknownField()).Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTables, err)
	}
	for i := range t.Rules {
		if err := core.ValidateTriageRule(&t.Rules[i]); err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", ErrInvalidTables, i, err)
		}
	}
	return &t, nil
}

// LoadTables reads YAML triage tables from path.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTables(data)
}
