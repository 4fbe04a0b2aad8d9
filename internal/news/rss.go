package news

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// Feed is one polled RSS/Atom source.
type Feed struct {
	URL    string
	Source string
	Topic  string
}

// DefaultFeeds is the fixed poll list. One article per feed keeps the mix
// broad instead of letting a single prolific feed dominate.
var DefaultFeeds = []Feed{
	{URL: "https://www.theverge.com/rss/index.xml", Source: "The Verge", Topic: "Tech"},
	{URL: "https://feeds.arstechnica.com/arstechnica/technology-lab", Source: "Ars Technica", Topic: "Tech"},
	{URL: "https://techcrunch.com/feed/", Source: "TechCrunch", Topic: "Startups"},
	{URL: "https://www.wired.com/feed/rss", Source: "Wired", Topic: "Tech"},
	{URL: "https://www.technologyreview.com/feed/", Source: "MIT Technology Review", Topic: "AI"},
	{URL: "https://dev.to/feed", Source: "DEV Community", Topic: "Programming"},
}

// RSSSource polls a fixed list of feeds, taking at most one article per feed.
type RSSSource struct {
	parser *gofeed.Parser
	log    *zap.Logger
	feeds  []Feed
}

// NewRSSSource creates an RSSSource. Passing no feeds uses DefaultFeeds.
func NewRSSSource(log *zap.Logger, userAgent string, feeds ...Feed) *RSSSource {
	parser := gofeed.NewParser()
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	return &RSSSource{parser: parser, log: log, feeds: feeds}
}

func (s *RSSSource) Name() string { return "rss" }

// FetchArticles polls feeds in order, stopping once limit is reached.
// A failing feed is logged and skipped; it never sinks the whole batch.
func (s *RSSSource) FetchArticles(ctx context.Context, limit int) ([]Article, error) {
	var articles []Article
	for _, feed := range s.feeds {
		if len(articles) >= limit {
			break
		}
		parsed, err := s.parser.ParseURLWithContext(feed.URL, ctx)
		if err != nil {
			s.log.Warn("rss feed fetch failed", zap.String("feed", feed.URL), zap.Error(err))
			continue
		}
		if len(parsed.Items) == 0 {
			continue
		}
		article, ok := normalizeFeedItem(parsed.Items[0], feed)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func normalizeFeedItem(item *gofeed.Item, feed Feed) (Article, bool) {
	if item.Link == "" || item.Title == "" {
		return Article{}, false
	}
	article := Article{
		Title:       item.Title,
		Description: item.Description,
		URL:         item.Link,
		PublishedAt: time.Now(),
		SourceName:  feed.Source,
		TopicTag:    feed.Topic,
	}
	if item.PublishedParsed != nil {
		article.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		article.PublishedAt = *item.UpdatedParsed
	}
	if item.Image != nil {
		article.ImageURL = item.Image.URL
	} else {
		for _, enc := range item.Enclosures {
			if enc.URL != "" {
				article.ImageURL = enc.URL
				break
			}
		}
	}
	return article, true
}
