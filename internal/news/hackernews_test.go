package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devfolio/internal/fetch"
)

func hackerNewsTestSource(t *testing.T, items map[int64]hackerNewsItem, order []int64) *HackerNewsSource {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(order)
	})
	mux.HandleFunc("/item/", func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/item/"), ".json")
		id, err := strconv.ParseInt(raw, 10, 64)
		require.NoError(t, err)
		json.NewEncoder(w).Encode(items[id])
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	hc := fetch.NewClient(fetch.ClientOptions{Timeout: 5 * time.Second})
	return NewHackerNewsSource(hc, zap.NewNop(), ts.URL)
}

func TestHackerNewsClassifiesAndNormalizes(t *testing.T) {
	now := time.Now().Unix()
	items := map[int64]hackerNewsItem{
		1: {ID: 1, Title: "New LLM beats benchmarks", URL: "https://example.com/llm", Time: now, By: "alice", Score: 120, Type: "story"},
		2: {ID: 2, Title: "Rust compiler internals", URL: "https://example.com/rust", Time: now, By: "bob", Score: 80, Type: "story"},
		3: {ID: 3, Title: "Critical vulnerability in popular router", URL: "https://example.com/cve", Time: now, By: "carol", Score: 200, Type: "story"},
		4: {ID: 4, Title: "Show HN: a weather station", Time: now, By: "dave", Score: 15, Type: "story"},
		5: {ID: 5, Title: "Quarterly earnings roundup", URL: "https://example.com/earnings", Time: now, By: "erin", Score: 30, Type: "story"},
	}
	s := hackerNewsTestSource(t, items, []int64{1, 2, 3, 4, 5})

	articles, err := s.FetchArticles(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, articles, 5)

	assert.Equal(t, "AI", articles[0].TopicTag)
	assert.Equal(t, "Programming", articles[1].TopicTag)
	assert.Equal(t, "Security", articles[2].TopicTag)
	assert.Equal(t, "Tech", articles[3].TopicTag, "unmatched titles fall into the default bucket")
	assert.Equal(t, "Tech", articles[4].TopicTag)

	// story without a URL links to its discussion page
	assert.Equal(t, fmt.Sprintf(hackerNewsItemPage, int64(4)), articles[3].URL)
	assert.Equal(t, "Hacker News", articles[0].SourceName)
	assert.Contains(t, articles[0].Description, "alice")
}

func TestHackerNewsStopsAtLimitAndDedupes(t *testing.T) {
	now := time.Now().Unix()
	items := map[int64]hackerNewsItem{
		1: {ID: 1, Title: "Story one", URL: "https://example.com/one", Time: now, Type: "story"},
		2: {ID: 2, Title: "Story one again", URL: "https://example.com/one", Time: now, Type: "story"},
		3: {ID: 3, Title: "Story two", URL: "https://example.com/two", Time: now, Type: "story"},
		4: {ID: 4, Title: "Story three", URL: "https://example.com/three", Time: now, Type: "story"},
	}
	s := hackerNewsTestSource(t, items, []int64{1, 2, 3, 4})

	articles, err := s.FetchArticles(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "https://example.com/one", articles[0].URL)
	assert.Equal(t, "https://example.com/two", articles[1].URL, "duplicate URL is skipped")
}

func TestHackerNewsSkipsDeadAndNonStories(t *testing.T) {
	now := time.Now().Unix()
	items := map[int64]hackerNewsItem{
		1: {ID: 1, Title: "Dead story", URL: "https://example.com/dead", Time: now, Type: "story", Dead: true},
		2: {ID: 2, Title: "A job posting", URL: "https://example.com/job", Time: now, Type: "job"},
		3: {ID: 3, Title: "Live story", URL: "https://example.com/live", Time: now, Type: "story"},
	}
	s := hackerNewsTestSource(t, items, []int64{1, 2, 3})

	articles, err := s.FetchArticles(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "https://example.com/live", articles[0].URL)
}

func TestClassifyTitleFirstBucketWins(t *testing.T) {
	// "ai" (AI bucket) appears before "security" in bucket order
	assert.Equal(t, "AI", classifyTitle("AI security audit tooling"))
	assert.Equal(t, "Security", classifyTitle("Security patch released"))
	assert.Equal(t, "Tech", classifyTitle("Something else entirely"))
}
