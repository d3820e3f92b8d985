package triage

import (
	"maps"
	"slices"

	"github.com/poiesic/medimatch/core"
)

// DefaultLevel is assigned when no rule matches.
const DefaultLevel = core.LevelNonUrgent

var defaultSynonyms = map[string][]string{
	"chest pain":          {"chest ache", "chest discomfort", "chest tightness"},
	"dizziness":           {"dizzy", "lightheaded", "faint"},
	"shortness of breath": {"breathlessness", "difficulty breathing"},
	"sweating":            {"sweaty", "perspiration"},
	"nausea":              {"sick to stomach", "queasy"},
	"palpitations":        {"heart racing", "irregular heartbeat"},
	"headache":            {"head pain", "migraine"},
	"heartburn":           {"acid reflux", "burning in chest"},
}

var defaultRules = []core.TriageRule{
	{
		Level: core.LevelUrgent,
		Conditions: []core.TriageCondition{
			{
				AllOf: []string{"chest pain"},
				AnyOf: []string{"shortness of breath", "sweating", "nausea", "palpitations"},
			},
			{
				AllOf: []string{"dizziness"},
				AnyOf: []string{"palpitations", "shortness of breath", "chest pain"},
			},
		},
	},
	{
		Level:      core.LevelNonUrgent,
		Conditions: []core.TriageCondition{{AllOf: []string{}, AnyOf: []string{}}},
	},
}

// DefaultSynonyms returns a copy of the built-in symptom synonym table.
func DefaultSynonyms() map[string][]string {
	return cloneSynonyms(defaultSynonyms)
}

// DefaultRules returns a copy of the built-in rule table.
func DefaultRules() []core.TriageRule {
	return cloneRules(defaultRules)
}

func cloneRules(rules []core.TriageRule) []core.TriageRule {
	out := make([]core.TriageRule, len(rules))
	for i, r := range rules {
		conds := make([]core.TriageCondition, len(r.Conditions))
		for j, c := range r.Conditions {
			conds[j] = core.TriageCondition{
				AllOf: cloneOrEmpty(c.AllOf),
				AnyOf: cloneOrEmpty(c.AnyOf),
			}
		}
		out[i] = core.TriageRule{Level: r.Level, Conditions: conds}
	}
	return out
}

func cloneOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

func cloneSynonyms(m map[string][]string) map[string][]string {
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = slices.Clone(v)
	}
	return out
}
