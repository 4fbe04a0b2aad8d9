package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"devfolio/internal/apperr"
	"devfolio/internal/cache"
	"devfolio/internal/extract"
	"devfolio/internal/fetch"
	"devfolio/internal/news"
	"devfolio/internal/profile"
	"devfolio/internal/stats"
)

// fetcher seams so handlers can be exercised without the live upstreams
type githubFetcher interface {
	FetchSnapshot(ctx context.Context, username string) (*stats.GitHubSnapshot, error)
}

type leetcodeFetcher interface {
	FetchSnapshot(ctx context.Context, username string) (*stats.LeetCodeSnapshot, error)
}

type newsFetcher interface {
	Fetch(ctx context.Context, limit int, priority bool) *news.Result
}

type articleFetcher interface {
	FetchArticle(ctx context.Context, rawURL string) (*extract.ArticleDetail, error)
}

// Server is the application server.
type Server struct {
	cfg *Config
	log *zap.Logger

	github   githubFetcher
	leetcode leetcodeFetcher
	newsFeed newsFetcher
	scraper  articleFetcher
	profiles profile.Store

	githubCache   *cache.Cache[*stats.GitHubSnapshot]
	leetcodeCache *cache.Cache[*stats.LeetCodeSnapshot]
	newsCache     *cache.Cache[newsResponse]
	articleCache  *cache.Cache[*extract.ArticleDetail]

	mux      *http.ServeMux
	shutdown chan struct{}
}

// NewServer creates a new Server with provided config.
func NewServer(cfg *Config, log *zap.Logger) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	hc := fetch.NewClient(fetch.ClientOptions{
		Timeout:   cfg.RequestTimeout,
		UserAgent: cfg.UserAgent,
	})

	githubClient := stats.NewGitHubClient(hc, log, stats.GitHubConfig{
		Token:             cfg.GitHubToken,
		CriticalRemaining: cfg.RateLimitCritical,
		RequestDelay:      cfg.RequestDelay,
	})
	leetcodeClient := stats.NewLeetCodeClient(hc, log, "")

	// fallback order: Guardian first, RSS second, HackerNews last
	orchestrator := news.NewOrchestrator(log,
		news.NewGuardianSource(hc, log, cfg.GuardianAPIKey, ""),
		news.NewRSSSource(log, cfg.UserAgent),
		news.NewHackerNewsSource(hc, log, ""),
	)

	scraper := extract.NewScraper(hc.StandardClient(), log, extract.ScraperConfig{
		Timeout:     cfg.RequestTimeout,
		MinInterval: cfg.ScrapeInterval,
	})

	s := &Server{
		cfg:           cfg,
		log:           log,
		github:        githubClient,
		leetcode:      leetcodeClient,
		newsFeed:      orchestrator,
		scraper:       scraper,
		profiles:      profile.NewEnvStore(),
		githubCache:   cache.New[*stats.GitHubSnapshot](cfg.StatsCacheTTL),
		leetcodeCache: cache.New[*stats.LeetCodeSnapshot](cfg.StatsCacheTTL),
		newsCache:     cache.New[newsResponse](cfg.NewsCacheTTL),
		articleCache:  cache.NewBounded[*extract.ArticleDetail](cfg.ArticleCacheTTL, cfg.ArticleCacheMax),
		mux:           http.NewServeMux(),
		shutdown:      make(chan struct{}),
	}

	s.registerRoutes()
	return s, nil
}

// Run starts the HTTP server and background workers.
func (s *Server) Run(addr string) error {
	go s.cacheCleanerLoop()

	h := &http.Server{
		Addr:    addr,
		Handler: s.withCommonHeaders(s.mux),
	}

	s.log.Info("server listening", zap.String("addr", addr))
	if err := h.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close stops background workers.
func (s *Server) Close() {
	close(s.shutdown)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/stats/github", s.handleGitHubStats)
	s.mux.HandleFunc("/stats/leetcode", s.handleLeetCodeStats)
	s.mux.HandleFunc("/news", s.handleNews)
	s.mux.HandleFunc("/news/article", s.handleNewsArticle)
	s.mux.HandleFunc("/news/feed", s.handleNewsFeed)
	s.mux.HandleFunc("/health", s.handleHealth)
}

// withCommonHeaders adds CORS, identity and request-ID headers and logs each
// request.
func (s *Server) withCommonHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Server", "devfolio")
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		h.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

// handleHealth returns JSON health information.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "devfolio",
		"cache_sizes": map[string]int{
			"github":   s.githubCache.Size(),
			"leetcode": s.leetcodeCache.Size(),
			"news":     s.newsCache.Size(),
			"articles": s.articleCache.Size(),
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// cacheCleanerLoop periodically sweeps stale entries from all caches.
func (s *Server) cacheCleanerLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	for {
		select {
		case <-ticker.C:
			s.githubCache.Cleanup()
			s.leetcodeCache.Cleanup()
			s.newsCache.Cleanup()
			s.articleCache.Cleanup()
		case <-s.shutdown:
			ticker.Stop()
			return
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("encoding response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, map[string]string{"error": apperr.Message(err)})
}
