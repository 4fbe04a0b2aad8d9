package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"devfolio/internal/fetch"
)

const (
	defaultHackerNewsBaseURL = "https://hacker-news.firebaseio.com/v0"
	hackerNewsItemPage       = "https://news.ycombinator.com/item?id=%d"
	hackerNewsScanDepth      = 30
)

// topicBucket maps title keywords to a topic tag. The first bucket whose
// keyword appears in the lowercased title wins.
type topicBucket struct {
	tag      string
	keywords []string
}

var hackerNewsBuckets = []topicBucket{
	{tag: "AI", keywords: []string{"ai", "gpt", "llm", "machine learning", "neural"}},
	{tag: "Programming", keywords: []string{"programming", "compiler", "rust", "python", "golang"}},
	{tag: "Security", keywords: []string{"security", "vulnerability", "hack", "breach", "exploit"}},
	{tag: "Web Dev", keywords: []string{"javascript", "css", "browser", "frontend", "react"}},
	{tag: "Hardware", keywords: []string{"chip", "cpu", "gpu", "silicon", "hardware"}},
	{tag: "Open Source", keywords: []string{"open source", "open-source", "linux", "github"}},
}

const hackerNewsDefaultTopic = "Tech"

// HackerNewsSource reads the Firebase top-stories API.
type HackerNewsSource struct {
	client  *fetch.Client
	log     *zap.Logger
	baseURL string
}

// NewHackerNewsSource creates a HackerNewsSource. An empty baseURL uses the
// public Firebase API.
func NewHackerNewsSource(client *fetch.Client, log *zap.Logger, baseURL string) *HackerNewsSource {
	if baseURL == "" {
		baseURL = defaultHackerNewsBaseURL
	}
	return &HackerNewsSource{client: client, log: log, baseURL: baseURL}
}

func (s *HackerNewsSource) Name() string { return "hackernews" }

type hackerNewsItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Time  int64  `json:"time"`
	By    string `json:"by"`
	Score int    `json:"score"`
	Type  string `json:"type"`
	Dead  bool   `json:"dead"`
}

// FetchArticles walks the top-stories list sequentially, collecting up to
// limit unique stories from the first 30 IDs.
func (s *HackerNewsSource) FetchArticles(ctx context.Context, limit int) ([]Article, error) {
	var ids []int64
	if err := s.client.GetJSON(ctx, s.baseURL+"/topstories.json", nil, &ids); err != nil {
		return nil, err
	}
	if len(ids) > hackerNewsScanDepth {
		ids = ids[:hackerNewsScanDepth]
	}

	seen := make(map[string]bool)
	var articles []Article
	for _, id := range ids {
		if len(articles) >= limit {
			break
		}
		var item hackerNewsItem
		if err := s.client.GetJSON(ctx, fmt.Sprintf("%s/item/%d.json", s.baseURL, id), nil, &item); err != nil {
			s.log.Warn("hackernews item fetch failed", zap.Int64("id", id), zap.Error(err))
			continue
		}
		if item.Dead || item.Title == "" || (item.Type != "" && item.Type != "story") {
			continue
		}
		storyURL := item.URL
		if storyURL == "" {
			// Ask HN and text posts link back to the discussion page
			storyURL = fmt.Sprintf(hackerNewsItemPage, item.ID)
		}
		if seen[storyURL] {
			continue
		}
		seen[storyURL] = true

		articles = append(articles, Article{
			Title:       item.Title,
			Description: fmt.Sprintf("Posted by %s, %d points on Hacker News", item.By, item.Score),
			URL:         storyURL,
			PublishedAt: time.Unix(item.Time, 0),
			SourceName:  "Hacker News",
			TopicTag:    classifyTitle(item.Title),
		})
	}
	return articles, nil
}

// classifyTitle assigns a topic tag by keyword substring match.
func classifyTitle(title string) string {
	lower := strings.ToLower(title)
	for _, bucket := range hackerNewsBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.tag
			}
		}
	}
	return hackerNewsDefaultTopic
}
