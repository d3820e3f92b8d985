package inference

import (
	"slices"

	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/resolve"
)

// RankFilter turns confirmed candidates into the final prediction list.
type RankFilter struct {
	minRetrievalSim float32
	topN            int
	resolver        *resolve.Resolver
}

// NewRankFilter creates a rank filter that enriches predictions via resolver.
func NewRankFilter(cfg Config, resolver *resolve.Resolver) *RankFilter {
	return &RankFilter{
		minRetrievalSim: cfg.MinRetrievalSim,
		topN:            cfg.TopN,
		resolver:        resolver,
	}
}

// Rank keeps the confirmed candidates, orders them by descending final
// score (stable), drops those whose retrieval similarity is below the floor
// and truncates to the top N.
func (r *RankFilter) Rank(candidates []*core.Candidate) []core.PredictionItem {
	kept := make([]*core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Kept {
			kept = append(kept, c)
		}
	}

	slices.SortStableFunc(kept, func(a, b *core.Candidate) int {
		if a.FinalScore > b.FinalScore {
			return -1
		}
		if a.FinalScore < b.FinalScore {
			return 1
		}
		return 0
	})

	items := make([]core.PredictionItem, 0, min(len(kept), r.topN))
	for _, c := range kept {
		if len(items) == r.topN {
			break
		}
		if c.RetrievalScore < r.minRetrievalSim {
			continue
		}
		items = append(items, r.item(c))
	}
	return items
}

func (r *RankFilter) item(c *core.Candidate) core.PredictionItem {
	item := core.PredictionItem{
		Label:            c.Concept.Label,
		Score:            c.FinalScore,
		System:           c.Concept.SystemOrDefault(),
		Description:      c.Concept.Description,
		RetrievalSim:     c.RetrievalScore,
		Specialists:      []string{},
		RecommendedTests: []core.RecommendedTest{},
	}
	if r.resolver == nil {
		return item
	}
	if m, ok := r.resolver.Resolve(c.Concept.Label); ok {
		item.Specialists = cloneOrEmpty(m.Concept.Specialists)
		item.RecommendedTests = cloneOrEmpty(m.Concept.RecommendedTests)
	}
	return item
}

func cloneOrEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}
