package onnx

import (
	"errors"

	"github.com/poiesic/medimatch/ai"
)

// Provider implements ai.AIProvider with local models.
type Provider struct {
	embedder   *Embedder
	classifier *Classifier
}

// NewProvider loads the sentence encoder and the NLI model.
func NewProvider(embedding, nli Config) (ai.AIProvider, error) {
	embedder, err := NewEmbedder(embedding)
	if err != nil {
		return nil, err
	}
	classifier, err := NewClassifier(nli)
	if err != nil {
		embedder.Close()
		return nil, err
	}
	return &Provider{embedder: embedder, classifier: classifier}, nil
}

// Embedder returns the local sentence encoder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Classifier returns the local NLI model.
func (p *Provider) Classifier() ai.EntailmentClassifier {
	return p.classifier
}

// Close releases both models.
func (p *Provider) Close() error {
	return errors.Join(p.classifier.Close(), p.embedder.Close())
}
