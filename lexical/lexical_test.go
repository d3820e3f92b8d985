package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/medimatch/core"
)

func TestContains(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		phrase string
		want   bool
	}{
		{name: "suffix glued", text: "heartburning", phrase: "heart", want: false},
		{name: "whole word", text: "a sharp pain near heart", phrase: "heart", want: true},
		{name: "case insensitive", text: "I have CHEST PAIN today", phrase: "chest pain", want: true},
		{name: "punctuation boundary", text: "pain, nausea.", phrase: "nausea", want: true},
		{name: "digit neighbour", text: "covid19", phrase: "covid", want: false},
		{name: "prefix glued", text: "preangina", phrase: "angina", want: false},
		{name: "second occurrence matches", text: "heartburn and heart", phrase: "heart", want: true},
		{name: "start of text", text: "fever since monday", phrase: "fever", want: true},
		{name: "hyphen is a boundary", text: "post-flu cough", phrase: "flu", want: true},
		{name: "empty phrase", text: "anything", phrase: "", want: false},
		{name: "empty text", text: "", phrase: "flu", want: false},
		{name: "non-ascii neighbour is a boundary", text: "éflu", phrase: "flu", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Contains(tt.text, tt.phrase))
		})
	}
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("feeling lightheaded", []string{"dizziness", "lightheaded"}))
	assert.False(t, ContainsAny("feeling fine", []string{"dizziness", "lightheaded"}))
	assert.False(t, ContainsAny("feeling fine", nil))
}

func TestMatcher(t *testing.T) {
	concepts := []*core.Concept{
		{Label: "Angina", Synonyms: core.Synonyms{"chest pain"}},
		{Label: "Heartburn", Synonyms: core.Synonyms{"acid reflux"}},
		{Label: "Heart failure"},
		{Label: "Migraine"},
	}
	m := NewMatcher(concepts)
	assert.Equal(t, 4, m.Len())

	t.Run("hits in catalogue order", func(t *testing.T) {
		hits := m.Hits("Migraine with chest pain and heartburn")
		assert.Equal(t, []int{0, 1, 3}, hits)
	})

	t.Run("no hits", func(t *testing.T) {
		assert.Empty(t, m.Hits("a sore knee"))
	})

	t.Run("matches single concept", func(t *testing.T) {
		assert.True(t, m.Matches("acid reflux after meals", 1))
		assert.False(t, m.Matches("acid reflux after meals", 2))
		assert.False(t, m.Matches("anything", -1))
		assert.False(t, m.Matches("anything", 99))
	})
}
