package news

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"devfolio/internal/fetch"
)

const defaultGuardianBaseURL = "https://content.guardianapis.com"

// guardianTopics is the fixed topic rotation queried each aggregation pass.
var guardianTopics = []string{
	"artificial intelligence",
	"programming",
	"cybersecurity",
	"cloud computing",
	"web development",
	"open source",
	"startups",
	"hardware",
	"data science",
	"mobile technology",
}

const (
	guardianPerTopicCap = 5
	guardianTopUpFloor  = 5
)

// GuardianSource queries the Guardian content API once per topic, restricted
// to the technology section and the last 7 days.
type GuardianSource struct {
	client  *fetch.Client
	log     *zap.Logger
	apiKey  string
	baseURL string
}

// NewGuardianSource creates a GuardianSource. An empty baseURL uses the
// public API.
func NewGuardianSource(client *fetch.Client, log *zap.Logger, apiKey, baseURL string) *GuardianSource {
	if baseURL == "" {
		baseURL = defaultGuardianBaseURL
	}
	return &GuardianSource{client: client, log: log, apiKey: apiKey, baseURL: baseURL}
}

func (s *GuardianSource) Name() string { return "guardian" }

type guardianResponse struct {
	Response struct {
		Results []struct {
			WebTitle           string    `json:"webTitle"`
			WebURL             string    `json:"webUrl"`
			WebPublicationDate time.Time `json:"webPublicationDate"`
			Fields             struct {
				TrailText string `json:"trailText"`
				Thumbnail string `json:"thumbnail"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

// FetchArticles fans out one search per topic, distributing the requested
// count evenly, then tops up from the general technology section when the
// topic passes come back sparse.
func (s *GuardianSource) FetchArticles(ctx context.Context, limit int) ([]Article, error) {
	if s.apiKey == "" {
		return nil, nil
	}

	perTopic := (limit + 5) / 6 // ceil(limit/6)
	if perTopic > guardianPerTopicCap {
		perTopic = guardianPerTopicCap
	}

	seen := make(map[string]bool)
	var articles []Article
	for _, topic := range guardianTopics {
		if len(articles) >= limit {
			break
		}
		batch, err := s.search(ctx, topic, perTopic)
		if err != nil {
			s.log.Warn("guardian topic query failed", zap.String("topic", topic), zap.Error(err))
			continue
		}
		for _, a := range batch {
			if seen[a.URL] {
				continue
			}
			seen[a.URL] = true
			articles = append(articles, a)
		}
	}

	floor := guardianTopUpFloor
	if limit < floor {
		floor = limit
	}
	if len(articles) < floor {
		batch, err := s.search(ctx, "", limit)
		if err != nil {
			s.log.Warn("guardian top-up query failed", zap.Error(err))
		}
		for _, a := range batch {
			if seen[a.URL] {
				continue
			}
			seen[a.URL] = true
			articles = append(articles, a)
		}
	}

	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

func (s *GuardianSource) search(ctx context.Context, topic string, pageSize int) ([]Article, error) {
	params := url.Values{}
	params.Set("section", "technology")
	params.Set("from-date", time.Now().Add(-7*24*time.Hour).Format("2006-01-02"))
	params.Set("show-fields", "trailText,thumbnail")
	params.Set("page-size", fmt.Sprint(pageSize))
	params.Set("order-by", "newest")
	params.Set("api-key", s.apiKey)
	topicTag := "Tech"
	if topic != "" {
		params.Set("q", topic)
		topicTag = topicLabel(topic)
	}

	var decoded guardianResponse
	if err := s.client.GetJSON(ctx, s.baseURL+"/search?"+params.Encode(), nil, &decoded); err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(decoded.Response.Results))
	for _, r := range decoded.Response.Results {
		if r.WebURL == "" {
			continue
		}
		articles = append(articles, Article{
			Title:       r.WebTitle,
			Description: r.Fields.TrailText,
			URL:         r.WebURL,
			ImageURL:    r.Fields.Thumbnail,
			PublishedAt: r.WebPublicationDate,
			SourceName:  "The Guardian",
			TopicTag:    topicTag,
		})
	}
	return articles, nil
}

// topicLabel turns a query phrase into the tag rendered on article cards.
func topicLabel(topic string) string {
	switch topic {
	case "artificial intelligence":
		return "AI"
	case "cybersecurity":
		return "Security"
	case "cloud computing":
		return "Cloud"
	case "web development":
		return "Web Dev"
	case "data science":
		return "Data Science"
	case "open source":
		return "Open Source"
	case "mobile technology":
		return "Mobile"
	case "programming":
		return "Programming"
	case "startups":
		return "Startups"
	case "hardware":
		return "Hardware"
	default:
		return "Tech"
	}
}
