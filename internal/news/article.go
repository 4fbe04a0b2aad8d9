// Package news aggregates tech articles from external sources with fallback.
package news

import (
	"context"
	"time"
)

// Article is the normalized shape every source adapter produces.
// URL doubles as the dedup key across sources.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	SourceName  string    `json:"sourceName"`
	TopicTag    string    `json:"topicTag"`
}

// Source is one upstream news provider. FetchArticles returns up to limit
// normalized articles; nil or empty means "try the next source". Ordinary
// non-200 upstream responses must not surface as errors — only unexpected
// transport failures do, and the orchestrator logs and moves on.
type Source interface {
	Name() string
	FetchArticles(ctx context.Context, limit int) ([]Article, error)
}
