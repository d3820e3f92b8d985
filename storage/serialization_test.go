package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medimatch/core"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("Angina")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalConcept(t *testing.T) {
	tests := []struct {
		name    string
		concept *core.Concept
	}{
		{
			name:    "minimal concept",
			concept: &core.Concept{Key: core.IDFromContent("Flu"), Label: "Flu"},
		},
		{
			name: "full concept",
			concept: &core.Concept{
				Id:          "I20",
				Key:         core.IDFromContent("Angina"),
				Ordinal:     12,
				Label:       "Angina",
				Description: "Chest pain caused by reduced blood flow to the heart",
				Synonyms:    core.Synonyms{"chest pain", "angina pectoris"},
				System:      "cardiovascular",
				Specialists: []string{"Cardiologist"},
				RecommendedTests: []core.RecommendedTest{
					{Name: "ECG", Description: "Electrocardiogram"},
					{Name: "Troponin"},
				},
				Vector: []float32{0.6, -0.8, 0},
			},
		},
		{
			name:    "unicode text",
			concept: &core.Concept{Label: "Fièvre", Description: "température élevée", Synonyms: core.Synonyms{"pyrexie"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalConcept(tt.concept)
			decoded, err := UnmarshalConcept(data)
			require.NoError(t, err)
			assert.Equal(t, tt.concept, decoded)
		})
	}
}

func TestUnmarshalConcept_Truncated(t *testing.T) {
	data := MarshalConcept(&core.Concept{
		Label:    "Angina",
		Synonyms: core.Synonyms{"chest pain"},
		Vector:   []float32{1, 0, 0},
	})

	for _, cut := range []int{0, 1, len(data) / 2, len(data) - 1} {
		_, err := UnmarshalConcept(data[:cut])
		assert.ErrorIs(t, err, ErrSerializationFailed, "cut at %d", cut)
	}
}

func TestMarshalUnmarshalCatalogInfo(t *testing.T) {
	info := &core.CatalogInfo{
		Name:           "diseases",
		Concepts:       431,
		Dimension:      384,
		EmbeddingModel: "all-minilm",
		UpdatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalCatalogInfo(MarshalCatalogInfo(info))
	require.NoError(t, err)
	assert.Equal(t, info, decoded)

	_, err = UnmarshalCatalogInfo(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
