package news

import (
	"context"

	"go.uber.org/zap"
)

// priorityQuota is the minimum article count that lets a priority request
// return without consulting further sources.
const priorityQuota = 3

// Result is an aggregated article batch with provenance.
type Result struct {
	Articles []Article
	// Sources lists the adapters that contributed, in consultation order.
	Sources []string
	// Fallback marks the curated list standing in for dead live sources.
	Fallback bool
}

// Mixed reports whether more than one source contributed.
func (r *Result) Mixed() bool { return len(r.Sources) > 1 }

// Orchestrator evaluates an ordered list of sources and degrades to curated
// content when all of them come up empty. It never returns an error.
type Orchestrator struct {
	sources []Source
	log     *zap.Logger
}

// NewOrchestrator creates an Orchestrator over sources in priority order.
func NewOrchestrator(log *zap.Logger, sources ...Source) *Orchestrator {
	return &Orchestrator{sources: sources, log: log}
}

// Fetch aggregates up to limit articles. A priority fetch returns as soon as
// the accumulated batch reaches the priority quota, trading completeness for
// first-paint latency; a full fetch walks sources until limit is met or all
// are exhausted. Duplicate URLs keep their first occurrence.
func (o *Orchestrator) Fetch(ctx context.Context, limit int, priority bool) *Result {
	seen := make(map[string]bool)
	result := &Result{}

	for _, source := range o.sources {
		if len(result.Articles) >= limit {
			break
		}
		if priority && len(result.Articles) >= priorityQuota {
			break
		}

		batch, err := source.FetchArticles(ctx, limit-len(result.Articles))
		if err != nil {
			o.log.Warn("news source failed, trying next",
				zap.String("source", source.Name()), zap.Error(err))
			continue
		}
		if len(batch) == 0 {
			continue
		}

		added := 0
		for _, a := range batch {
			if a.URL == "" || seen[a.URL] {
				continue
			}
			seen[a.URL] = true
			result.Articles = append(result.Articles, a)
			added++
			if len(result.Articles) >= limit {
				break
			}
		}
		if added > 0 {
			result.Sources = append(result.Sources, source.Name())
		}
	}

	if len(result.Articles) == 0 {
		o.log.Warn("all news sources empty, serving curated fallback")
		result.Articles = CuratedFallback()
		if len(result.Articles) > limit && limit > 0 {
			result.Articles = result.Articles[:limit]
		}
		result.Sources = []string{"curated"}
		result.Fallback = true
	}

	return result
}
