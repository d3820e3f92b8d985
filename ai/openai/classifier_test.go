package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/medimatch/ai"
)

func TestParseJudgment(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ai.Entailment
		wantErr bool
	}{
		{
			name:  "plain json",
			input: `{"contradiction":0.1,"neutral":0.2,"entailment":0.7}`,
			want:  ai.Entailment{Contradiction: 0.1, Neutral: 0.2, Entailment: 0.7},
		},
		{
			name:  "code fenced",
			input: "```json\n{\"contradiction\":0.5,\"neutral\":0.25,\"entailment\":0.25}\n```",
			want:  ai.Entailment{Contradiction: 0.5, Neutral: 0.25, Entailment: 0.25},
		},
		{
			name:  "missing opening quote repaired",
			input: `{"contradiction":0.2, neutral":0.2, "entailment":0.6}`,
			want:  ai.Entailment{Contradiction: 0.2, Neutral: 0.2, Entailment: 0.6},
		},
		{
			name:  "percentages rescaled",
			input: `{"contradiction":10,"neutral":30,"entailment":60}`,
			want:  ai.Entailment{Contradiction: 0.1, Neutral: 0.3, Entailment: 0.6},
		},
		{name: "missing field", input: `{"contradiction":0.5,"entailment":0.5}`, wantErr: true},
		{name: "not json", input: `the patient probably has it`, wantErr: true},
		{name: "all zero", input: `{"contradiction":0,"neutral":0,"entailment":0}`, wantErr: true},
		{name: "negative", input: `{"contradiction":-1,"neutral":1,"entailment":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseJudgment(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ai.ErrMalformedEntailment)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Contradiction, got.Contradiction, 1e-5)
			assert.InDelta(t, tt.want.Neutral, got.Neutral, 1e-5)
			assert.InDelta(t, tt.want.Entailment, got.Entailment, 1e-5)
		})
	}
}

func TestBuildUserPrompt(t *testing.T) {
	got := buildUserPrompt(`chest "pain"`, "The patient has Angina.")
	assert.Equal(t, "PREMISE: \"chest \\\"pain\\\"\"\nHYPOTHESIS: \"The patient has Angina.\"", got)
}
