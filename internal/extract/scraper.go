package extract

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"devfolio/internal/apperr"
)

const (
	defaultScrapeTimeout  = 15 * time.Second
	defaultScrapeInterval = time.Second

	// pages larger than this are cut off; article bodies never get close
	maxArticleBytes = 5 << 20

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ScraperConfig tunes the article scraper. Zero values use the defaults above.
type ScraperConfig struct {
	Timeout time.Duration
	// MinInterval spaces scrapes process-wide so bursts of article requests
	// do not hammer a single upstream.
	MinInterval time.Duration
	// AllowLoopback disables the loopback-host block, for tests and local use.
	AllowLoopback bool
}

// Scraper fetches an arbitrary article URL and runs extraction on the result.
// All scrapes share one pacing limiter, so concurrent requests serialize
// against the same watermark.
type Scraper struct {
	client        *http.Client
	log           *zap.Logger
	extractor     *Extractor
	limiter       *rate.Limiter
	timeout       time.Duration
	allowLoopback bool
}

// NewScraper creates a Scraper around the given HTTP client.
func NewScraper(client *http.Client, log *zap.Logger, cfg ScraperConfig) *Scraper {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultScrapeTimeout
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaultScrapeInterval
	}
	return &Scraper{
		client:        client,
		log:           log,
		extractor:     NewExtractor(log),
		limiter:       rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		timeout:       cfg.Timeout,
		allowLoopback: cfg.AllowLoopback,
	}
}

// FetchArticle validates, fetches and extracts the article at rawURL.
func (s *Scraper) FetchArticle(ctx context.Context, rawURL string) (*ArticleDetail, error) {
	pageURL, err := s.validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, apperr.Internal("waiting for scrape slot", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, apperr.Internal("building article request", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Timeout("article fetch timed out")
		}
		return nil, apperr.Internal("fetching article", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Upstream(resp.StatusCode, "article source responded with an error")
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		return nil, apperr.Validation("URL does not return HTML content")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Timeout("article fetch timed out")
		}
		return nil, apperr.Internal("reading article body", err)
	}

	detail := s.extractor.Extract(string(body), pageURL)
	s.log.Info("article scraped",
		zap.String("url", pageURL.String()),
		zap.Int("words", detail.WordCount))
	return detail, nil
}

// validateURL enforces the scheme and host policy before any network call.
func (s *Scraper) validateURL(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, apperr.Validation("url parameter is required")
	}
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperr.Validation("invalid URL")
	}
	if pageURL.Scheme != "http" && pageURL.Scheme != "https" {
		return nil, apperr.Validation("only http and https URLs are supported")
	}
	if pageURL.Hostname() == "" {
		return nil, apperr.Validation("invalid URL")
	}
	if !s.allowLoopback && isLoopbackHost(pageURL.Hostname()) {
		return nil, apperr.Validation("URL host is not allowed")
	}
	return pageURL, nil
}

func isLoopbackHost(host string) bool {
	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsUnspecified()
	}
	return false
}
