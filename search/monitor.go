package search

import (
	"github.com/poiesic/medimatch/core"
)

// RetrievalMonitor provides hooks to observe candidate retrieval.
// Implement this interface to track intermediate steps and results.
type RetrievalMonitor interface {
	Start(text string)
	AfterVectorSearch(matches []core.SimilarityMatch)
	AfterLexicalMatch(indices []int)
	AfterRescore(candidates []*core.Candidate, precise bool)
	Finish(candidates []*core.Candidate)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterVectorSearch(_ []core.SimilarityMatch) {}
func (n *noopMonitor) AfterLexicalMatch(_ []int)                  {}
func (n *noopMonitor) AfterRescore(_ []*core.Candidate, _ bool)   {}
func (n *noopMonitor) Finish(_ []*core.Candidate)                 {}
