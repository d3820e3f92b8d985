package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medimatch/core"
)

func testConcepts() []*core.Concept {
	return []*core.Concept{
		{Id: "I20", Label: "Angina", Synonyms: core.Synonyms{"chest pain", "angina pectoris"}},
		{Id: "G43", Label: "Migraine", Synonyms: core.Synonyms{"headache"}},
		{Label: "Tension headache", Synonyms: core.Synonyms{"headache"}},
		{Label: "Chest pain syndrome"},
	}
}

func TestNewResolver(t *testing.T) {
	t.Run("invalid cutoff", func(t *testing.T) {
		_, err := NewResolver(testConcepts(), WithFuzzyCutoff(101))
		assert.Equal(t, ErrInvalidCutoff, err)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		r, err := NewResolver(testConcepts(), WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, r)
	})
}

func TestResolve_Chain(t *testing.T) {
	r, err := NewResolver(testConcepts())
	require.NoError(t, err)

	tests := []struct {
		name   string
		query  string
		label  string
		method Method
	}{
		{"exact label", "  ANGINA ", "Angina", MethodExact},
		{"exact id", "g43", "Migraine", MethodExact},
		{"synonym keeps first declaring concept", "Headache", "Migraine", MethodSynonym},
		// "chest pain" is a synonym of Angina and a fuzzy hit on "chest pain syndrome".
		{"synonym beats fuzzy label", "chest pain", "Angina", MethodSynonym},
		{"fuzzy", "angina pectoris stable", "Angina", MethodFuzzy},
		{"fuzzy typo", "migrane", "Migraine", MethodFuzzy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := r.Resolve(tt.query)
			require.True(t, ok)
			assert.Equal(t, tt.label, m.Concept.Label)
			assert.Equal(t, tt.method, m.Method)
		})
	}
}

func TestResolve_FuzzySharedPhraseOwner(t *testing.T) {
	r, err := NewResolver(testConcepts())
	require.NoError(t, err)

	// "headache" is declared by Migraine then Tension headache; the last owner wins.
	m, ok := r.Resolve("bad headaches")
	require.True(t, ok)
	assert.Equal(t, MethodFuzzy, m.Method)
	assert.Equal(t, "Tension headache", m.Concept.Label)
}

func TestResolve_Miss(t *testing.T) {
	r, err := NewResolver(testConcepts())
	require.NoError(t, err)

	_, ok := r.Resolve("fractured wrist")
	assert.False(t, ok)

	_, ok = r.Resolve("   ")
	assert.False(t, ok)

	strict, err := NewResolver(testConcepts(), WithFuzzyCutoff(100))
	require.NoError(t, err)
	_, ok = strict.Resolve("migrane")
	assert.False(t, ok)
}

func TestMethodString(t *testing.T) {
	assert.Equal(t, "exact", MethodExact.String())
	assert.Equal(t, "synonym", MethodSynonym.String())
	assert.Equal(t, "fuzzy", MethodFuzzy.String())
	assert.Equal(t, "none", Method(0).String())
}
