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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/medimatch/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Classifier implements ai.EntailmentClassifier using OpenAI-compatible chat APIs.
type Classifier struct {
	client      llms.Model
	maxAttempts int
	logger      *slog.Logger
}

// judgment is the wire form of the model's JSON answer.
type judgment struct {
	Contradiction *float32 `json:"contradiction"`
	Neutral       *float32 `json:"neutral"`
	Entailment    *float32 `json:"entailment"`
}

// newClassifier is an internal constructor that returns the concrete type.
func newClassifier(config *ai.Config) (*Classifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := newClient(config, config.ClassifierHost, openai.WithModel(config.ClassifierModel))
	if err != nil {
		return nil, err
	}

	return &Classifier{
		client:      client,
		maxAttempts: config.MaxAttempts,
		logger:      slog.Default().With("component", "openai-classifier"),
	}, nil
}

// NewClassifier creates a new entailment classifier using the provided configuration.
//
// Returns ai.EntailmentClassifier interface to enforce abstraction.
func NewClassifier(config *ai.Config) (ai.EntailmentClassifier, error) {
	return newClassifier(config)
}

// Entail asks the chat model for NLI probabilities of the pair.
// Malformed replies are retried up to the configured attempt count.
func (c *Classifier) Entail(ctx context.Context, premise, hypothesis string) (ai.Entailment, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSystemPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildUserPrompt(premise, hypothesis))},
		},
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return ai.Entailment{}, err
		}

		if len(response.Choices) < 1 {
			lastErr = fmt.Errorf("%w: no choices returned", ai.ErrMalformedEntailment)
			c.logger.Debug("no choices returned from model", "attempt", attempt+1)
			continue
		}

		result, err := parseJudgment(response.Choices[0].Content)
		if err != nil {
			lastErr = err
			c.logger.Warn("error parsing classifier response",
				"attempt", attempt+1,
				"response", response.Choices[0].Content,
				"err", err)
			continue
		}

		c.logger.Debug("entailment judged",
			"hypothesis", hypothesis,
			"entailment", result.Entailment,
			"margin", result.Margin())
		return result, nil
	}

	c.logger.Error("failed to parse classifier response after retries", "err", lastErr)
	return ai.Entailment{}, lastErr
}

// parseJudgment extracts the probability triple from a model reply.
// Surrounding prose and code fences are dropped, common JSON defects
// repaired, and slightly off-sum triples rescaled.
func parseJudgment(text string) (ai.Entailment, error) {
	text = repairJSON(extractObject(text))

	var j judgment
	if err := json.Unmarshal([]byte(text), &j); err != nil {
		return ai.Entailment{}, fmt.Errorf("%w: %w", ai.ErrMalformedEntailment, err)
	}
	if j.Contradiction == nil || j.Neutral == nil || j.Entailment == nil {
		return ai.Entailment{}, fmt.Errorf("%w: missing probability", ai.ErrMalformedEntailment)
	}

	result, err := ai.Entailment{
		Contradiction: *j.Contradiction,
		Neutral:       *j.Neutral,
		Entailment:    *j.Entailment,
	}.Normalized()
	if err != nil {
		return ai.Entailment{}, err
	}
	if err := result.Validate(); err != nil {
		return ai.Entailment{}, err
	}
	return result, nil
}
