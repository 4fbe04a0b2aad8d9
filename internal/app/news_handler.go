package app

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/feeds"

	"devfolio/internal/apperr"
	"devfolio/internal/news"
)

const (
	defaultNewsLimit = 10
	maxNewsLimit     = 50

	// extractions shorter than this are served but never cached
	minCacheableContent = 100
)

type newsResponse struct {
	Articles     []news.Article `json:"articles"`
	TotalResults int            `json:"totalResults"`
	Cached       bool           `json:"cached,omitempty"`
	Mixed        bool           `json:"mixed,omitempty"`
	Source       string         `json:"source,omitempty"`
	Priority     bool           `json:"priority,omitempty"`
}

// handleNews serves GET /news?limit=<int>&priority=<bool>&fresh=<bool>.
// fresh bypasses the cache read but the aggregate is always written back.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseLimit(query.Get("limit"))
	priority := query.Get("priority") == "true"
	fresh := query.Get("fresh") == "true"

	key := fmt.Sprintf("news:%d:%t", limit, priority)
	if !fresh {
		if resp, ok := s.newsCache.Get(key); ok {
			resp.Cached = true
			s.writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	result := s.newsFeed.Fetch(r.Context(), limit, priority)
	resp := newsResponse{
		Articles:     result.Articles,
		TotalResults: len(result.Articles),
		Mixed:        result.Mixed(),
		Priority:     priority,
	}
	if len(result.Sources) == 1 {
		resp.Source = result.Sources[0]
	}

	s.newsCache.Set(key, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

// handleNewsArticle serves GET /news/article?url=<urlencoded string>.
func (s *Server) handleNewsArticle(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.writeError(w, apperr.Validation("url parameter is required"))
		return
	}

	if detail, ok := s.articleCache.Get(rawURL); ok {
		s.writeJSON(w, http.StatusOK, detail)
		return
	}

	detail, err := s.scraper.FetchArticle(r.Context(), rawURL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// near-empty extractions are not worth pinning in the bounded cache
	if len(detail.Content) > minCacheableContent {
		s.articleCache.Set(rawURL, detail)
	}
	s.writeJSON(w, http.StatusOK, detail)
}

// handleNewsFeed serves the aggregated list as RSS for feed readers.
func (s *Server) handleNewsFeed(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))
	result := s.newsFeed.Fetch(r.Context(), limit, false)

	feed := &feeds.Feed{
		Title:       "Devfolio Tech News",
		Link:        &feeds.Link{Href: "/news/feed"},
		Description: "Aggregated technology news",
		Created:     time.Now(),
	}
	for _, a := range result.Articles {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       a.Title,
			Link:        &feeds.Link{Href: a.URL},
			Description: a.Description,
			Created:     a.PublishedAt,
			Id:          a.URL,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		s.writeError(w, apperr.Internal("rendering feed", err))
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write([]byte(rss))
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultNewsLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return defaultNewsLimit
	}
	if limit > maxNewsLimit {
		return maxNewsLimit
	}
	return limit
}
