package openai

import "fmt"

const entailmentResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "contradiction": {"type": "number", "minimum": 0, "maximum": 1},
    "neutral": {"type": "number", "minimum": 0, "maximum": 1},
    "entailment": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "required": ["contradiction", "neutral", "entailment"],
  "additionalProperties": false
}`

const entailmentPromptTemplate = `You are a natural language inference classifier. You are given a PREMISE written
by a patient describing their symptoms and a HYPOTHESIS about the patient.

Decide how strongly the premise supports the hypothesis and return three probabilities:
- "entailment": the premise makes the hypothesis likely to be true
- "neutral": the premise neither supports nor contradicts the hypothesis
- "contradiction": the premise makes the hypothesis unlikely to be true

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- The three numbers must each be between 0 and 1 and must sum to 1.
- Judge only from the premise. Do not assume symptoms the patient did not mention.
- A symptom shared by many conditions is weak evidence; prefer "neutral" when the premise is vague.

Example:
PREMISE: "crushing chest pain spreading to my left arm and I am sweating"
HYPOTHESIS: "The patient has Myocardial infarction."
Output:
{"contradiction":0.03,"neutral":0.12,"entailment":0.85}

Example:
PREMISE: "my knee hurts after running"
HYPOTHESIS: "The patient has Migraine."
Output:
{"contradiction":0.70,"neutral":0.28,"entailment":0.02}`

const entailmentUserTemplate = "PREMISE: %q\nHYPOTHESIS: %q"

// buildSystemPrompt creates the system prompt with the response schema embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(entailmentPromptTemplate, entailmentResponseSchema)
}

// buildUserPrompt renders the premise/hypothesis pair.
func buildUserPrompt(premise, hypothesis string) string {
	return fmt.Sprintf(entailmentUserTemplate, premise, hypothesis)
}
