package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devfolio/internal/apperr"
	"devfolio/internal/cache"
	"devfolio/internal/extract"
	"devfolio/internal/news"
	"devfolio/internal/profile"
	"devfolio/internal/stats"
)

type stubGitHub struct {
	snapshot *stats.GitHubSnapshot
	err      error
	calls    int
	lastUser string
}

func (s *stubGitHub) FetchSnapshot(ctx context.Context, username string) (*stats.GitHubSnapshot, error) {
	s.calls++
	s.lastUser = username
	return s.snapshot, s.err
}

type stubLeetCode struct {
	snapshot *stats.LeetCodeSnapshot
	err      error
	calls    int
}

func (s *stubLeetCode) FetchSnapshot(ctx context.Context, username string) (*stats.LeetCodeSnapshot, error) {
	s.calls++
	return s.snapshot, s.err
}

type stubNews struct {
	result *news.Result
	calls  int
}

func (s *stubNews) Fetch(ctx context.Context, limit int, priority bool) *news.Result {
	s.calls++
	return s.result
}

type stubScraper struct {
	detail *extract.ArticleDetail
	err    error
	calls  int
}

func (s *stubScraper) FetchArticle(ctx context.Context, rawURL string) (*extract.ArticleDetail, error) {
	s.calls++
	return s.detail, s.err
}

type stubProfiles struct {
	p profile.Profile
}

func (s *stubProfiles) Lookup(ctx context.Context) (profile.Profile, error) {
	return s.p, nil
}

type serverStubs struct {
	github   *stubGitHub
	leetcode *stubLeetCode
	news     *stubNews
	scraper  *stubScraper
	profiles *stubProfiles
}

func newTestServer(t *testing.T, stubs serverStubs) *Server {
	t.Helper()
	cfg := DefaultConfig()
	if stubs.github == nil {
		stubs.github = &stubGitHub{}
	}
	if stubs.leetcode == nil {
		stubs.leetcode = &stubLeetCode{}
	}
	if stubs.news == nil {
		stubs.news = &stubNews{result: &news.Result{}}
	}
	if stubs.scraper == nil {
		stubs.scraper = &stubScraper{}
	}
	if stubs.profiles == nil {
		stubs.profiles = &stubProfiles{}
	}

	s := &Server{
		cfg:           cfg,
		log:           zap.NewNop(),
		github:        stubs.github,
		leetcode:      stubs.leetcode,
		newsFeed:      stubs.news,
		scraper:       stubs.scraper,
		profiles:      stubs.profiles,
		githubCache:   cache.New[*stats.GitHubSnapshot](cfg.StatsCacheTTL),
		leetcodeCache: cache.New[*stats.LeetCodeSnapshot](cfg.StatsCacheTTL),
		newsCache:     cache.New[newsResponse](cfg.NewsCacheTTL),
		articleCache:  cache.NewBounded[*extract.ArticleDetail](cfg.ArticleCacheTTL, cfg.ArticleCacheMax),
		mux:           http.NewServeMux(),
		shutdown:      make(chan struct{}),
	}
	s.registerRoutes()
	return s
}

func doRequest(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.withCommonHeaders(s.mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGitHubStatsRequiresUsername(t *testing.T) {
	s := newTestServer(t, serverStubs{})

	rec := doRequest(s, "/stats/github")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username")
}

func TestGitHubStatsFallsBackToProfileStore(t *testing.T) {
	github := &stubGitHub{snapshot: &stats.GitHubSnapshot{}}
	s := newTestServer(t, serverStubs{
		github:   github,
		profiles: &stubProfiles{p: profile.Profile{GitHubUsername: "octocat"}},
	})

	rec := doRequest(s, "/stats/github")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "octocat", github.lastUser)
}

func TestGitHubStatsServesCachedSnapshot(t *testing.T) {
	github := &stubGitHub{snapshot: &stats.GitHubSnapshot{
		Commits: stats.CommitCounts{
			Last30Days: stats.Count(12),
			ThisWeek:   stats.Count(3),
		},
		User: stats.GitHubUser{Login: "octocat"},
	}}
	s := newTestServer(t, serverStubs{github: github})

	first := doRequest(s, "/stats/github?username=octocat")
	second := doRequest(s, "/stats/github?username=octocat")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 1, github.calls, "second request within TTL must not hit the upstream")
	assert.Equal(t, first.Body.String(), second.Body.String(), "cached payload is returned verbatim")
}

func TestGitHubStatsMapsNotFound(t *testing.T) {
	s := newTestServer(t, serverStubs{
		github: &stubGitHub{err: apperr.NotFound("GitHub user not found")},
	})

	rec := doRequest(s, "/stats/github?username=ghost")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "GitHub user not found", body["error"])
}

func TestLeetCodeStatsHappyPath(t *testing.T) {
	leetcode := &stubLeetCode{snapshot: &stats.LeetCodeSnapshot{TotalSolved: 150, Username: "foo"}}
	s := newTestServer(t, serverStubs{leetcode: leetcode})

	rec := doRequest(s, "/stats/leetcode?username=foo")

	assert.Equal(t, http.StatusOK, rec.Code)
	var snap stats.LeetCodeSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 150, snap.TotalSolved)

	doRequest(s, "/stats/leetcode?username=foo")
	assert.Equal(t, 1, leetcode.calls)
}

func TestNewsCachesAggregateAndMarksSecondHit(t *testing.T) {
	stub := &stubNews{result: &news.Result{
		Articles: []news.Article{{Title: "a", URL: "https://example.com/a"}},
		Sources:  []string{"guardian"},
	}}
	s := newTestServer(t, serverStubs{news: stub})

	first := doRequest(s, "/news?limit=10")
	second := doRequest(s, "/news?limit=10")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 1, stub.calls)

	var resp newsResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &resp))
	assert.False(t, resp.Cached)
	assert.Equal(t, "guardian", resp.Source)
	assert.Equal(t, 1, resp.TotalResults)

	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.True(t, resp.Cached)
}

func TestNewsFreshBypassesCacheRead(t *testing.T) {
	stub := &stubNews{result: &news.Result{
		Articles: []news.Article{{Title: "a", URL: "https://example.com/a"}},
		Sources:  []string{"rss"},
	}}
	s := newTestServer(t, serverStubs{news: stub})

	doRequest(s, "/news")
	doRequest(s, "/news?fresh=true")

	assert.Equal(t, 2, stub.calls, "fresh=true refetches even with a warm cache")
}

func TestNewsNeverReturnsEmpty(t *testing.T) {
	stub := &stubNews{result: &news.Result{
		Articles: news.CuratedFallback(),
		Sources:  []string{"curated"},
		Fallback: true,
	}}
	s := newTestServer(t, serverStubs{news: stub})

	rec := doRequest(s, "/news")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp newsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, len(resp.Articles), 1)
}

func TestNewsArticleRequiresURL(t *testing.T) {
	s := newTestServer(t, serverStubs{})

	rec := doRequest(s, "/news/article")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewsArticleMapsScraperErrors(t *testing.T) {
	s := newTestServer(t, serverStubs{
		scraper: &stubScraper{err: apperr.Validation("URL does not return HTML content")},
	})

	rec := doRequest(s, "/news/article?url=https%3A%2F%2Fexample.com%2Fdata.json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not return HTML")
}

func TestNewsArticleCachesSubstantialContentOnly(t *testing.T) {
	long := &stubScraper{detail: &extract.ArticleDetail{
		URL:     "https://example.com/long",
		Content: strings.Repeat("words and more words ", 20),
	}}
	s := newTestServer(t, serverStubs{scraper: long})

	doRequest(s, "/news/article?url=https%3A%2F%2Fexample.com%2Flong")
	doRequest(s, "/news/article?url=https%3A%2F%2Fexample.com%2Flong")
	assert.Equal(t, 1, long.calls, "substantial extractions are cached")

	short := &stubScraper{detail: &extract.ArticleDetail{
		URL:     "https://example.com/short",
		Content: "too thin",
	}}
	s = newTestServer(t, serverStubs{scraper: short})

	doRequest(s, "/news/article?url=https%3A%2F%2Fexample.com%2Fshort")
	doRequest(s, "/news/article?url=https%3A%2F%2Fexample.com%2Fshort")
	assert.Equal(t, 2, short.calls, "near-empty extractions are never cached")
}

func TestNewsFeedRendersRSS(t *testing.T) {
	stub := &stubNews{result: &news.Result{
		Articles: []news.Article{{Title: "Feed story", URL: "https://example.com/a", Description: "d"}},
		Sources:  []string{"rss"},
	}}
	s := newTestServer(t, serverStubs{news: stub})

	rec := doRequest(s, "/news/feed")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, rec.Body.String(), "<rss")
	assert.Contains(t, rec.Body.String(), "Feed story")
}

func TestHealthReportsCacheSizes(t *testing.T) {
	s := newTestServer(t, serverStubs{})

	rec := doRequest(s, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "devfolio", rec.Header().Get("Server"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
