package stats

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"devfolio/internal/apperr"
	"devfolio/internal/fetch"
)

const (
	defaultGitHubBaseURL = "https://api.github.com"

	// commit history is sampled from the most recently updated repos only,
	// to keep the number of API calls per snapshot predictable
	maxCommitRepos = 2

	commitWindow = 30 * 24 * time.Hour
	weekWindow   = 7 * 24 * time.Hour
)

// GitHubConfig tunes the GitHub client. Zero values fall back to defaults.
type GitHubConfig struct {
	Token string
	// BaseURL overrides the API root, used by tests.
	BaseURL string
	// CriticalRemaining is the preflight quota floor below which commit
	// history calls are skipped entirely.
	CriticalRemaining int
	// RequestDelay spaces sequential commit-history calls.
	RequestDelay time.Duration
}

// GitHubClient fetches a user's activity snapshot from the GitHub REST API.
type GitHubClient struct {
	client            *fetch.Client
	log               *zap.Logger
	baseURL           string
	token             string
	criticalRemaining int
	requestDelay      time.Duration
}

// NewGitHubClient creates a GitHubClient.
func NewGitHubClient(client *fetch.Client, log *zap.Logger, cfg GitHubConfig) *GitHubClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGitHubBaseURL
	}
	if cfg.CriticalRemaining <= 0 {
		cfg.CriticalRemaining = 3
	}
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = 200 * time.Millisecond
	}
	return &GitHubClient{
		client:            client,
		log:               log,
		baseURL:           cfg.BaseURL,
		token:             cfg.Token,
		criticalRemaining: cfg.CriticalRemaining,
		requestDelay:      cfg.RequestDelay,
	}
}

// GitHubUser is the profile subset the portfolio renders.
type GitHubUser struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

// Repository is the repo subset the portfolio renders.
type Repository struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	HTMLURL     string    `json:"html_url"`
	Language    string    `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	Fork        bool      `json:"fork"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CommitCounts carries the windowed commit metrics, each possibly degraded.
type CommitCounts struct {
	Last30Days Metric `json:"last30Days"`
	ThisWeek   Metric `json:"thisWeek"`
}

// GitHubSnapshot is the normalized response for /stats/github.
type GitHubSnapshot struct {
	Commits      CommitCounts `json:"commits"`
	Repositories []Repository `json:"repositories"`
	User         GitHubUser   `json:"user"`
	RateLimited  bool         `json:"rateLimited"`
	Message      string       `json:"message,omitempty"`
}

type rateLimitResponse struct {
	Resources struct {
		Core struct {
			Remaining int `json:"remaining"`
		} `json:"core"`
	} `json:"resources"`
}

type commitItem struct {
	Commit struct {
		Author struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// FetchSnapshot builds the snapshot for username. Rate-limit pressure degrades
// the response instead of failing it; only a missing user or a totally
// unusable upstream surfaces as an error.
func (c *GitHubClient) FetchSnapshot(ctx context.Context, username string) (*GitHubSnapshot, error) {
	remaining := c.remainingQuota(ctx)

	var user GitHubUser
	if err := c.get(ctx, "/users/"+url.PathEscape(username), &user); err != nil {
		var se *fetch.StatusError
		if errors.As(err, &se) {
			switch se.Code {
			case http.StatusNotFound:
				return nil, apperr.NotFound("GitHub user not found")
			case http.StatusForbidden, http.StatusTooManyRequests:
				return nil, apperr.RateLimited("GitHub API rate limit exceeded")
			}
		}
		return nil, apperr.Internal("fetching GitHub user", err)
	}

	snapshot := &GitHubSnapshot{User: user}

	var repos []Repository
	if err := c.get(ctx, "/users/"+url.PathEscape(username)+"/repos?per_page=100&sort=updated", &repos); err != nil {
		if isRateLimitStatus(err) {
			snapshot.RateLimited = true
			snapshot.Commits = CommitCounts{
				Last30Days: Unavailable(SentinelRateLimited),
				ThisWeek:   Unavailable(SentinelRateLimited),
			}
			return snapshot, nil
		}
		return nil, apperr.Internal("fetching GitHub repositories", err)
	}
	snapshot.Repositories = repos

	if remaining >= 0 && remaining < c.criticalRemaining {
		c.log.Warn("github quota critical, skipping commit history",
			zap.Int("remaining", remaining), zap.String("username", username))
		snapshot.RateLimited = true
		snapshot.Message = "GitHub API rate limit critical, commit history skipped"
		snapshot.Commits = CommitCounts{
			Last30Days: Unavailable(SentinelRateLimitCritical),
			ThisWeek:   Unavailable(SentinelRateLimitCritical),
		}
		return snapshot, nil
	}

	snapshot.Commits = c.countCommits(ctx, username, repos, snapshot)
	return snapshot, nil
}

// countCommits walks the first maxCommitRepos non-fork repos. A 403/429 on any
// iteration aborts the loop but keeps counts gathered so far.
func (c *GitHubClient) countCommits(ctx context.Context, username string, repos []Repository, snapshot *GitHubSnapshot) CommitCounts {
	now := time.Now()
	since := now.Add(-commitWindow).UTC().Format(time.RFC3339)

	var last30, week, counted int
	for _, repo := range repos {
		if repo.Fork {
			continue
		}
		if counted >= maxCommitRepos {
			break
		}
		if counted > 0 {
			timer := time.NewTimer(c.requestDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return CommitCounts{Last30Days: Count(last30), ThisWeek: Count(week)}
			case <-timer.C:
			}
		}

		path := fmt.Sprintf("/repos/%s/%s/commits?per_page=100&since=%s",
			url.PathEscape(username), url.PathEscape(repo.Name), url.QueryEscape(since))
		var commits []commitItem
		if err := c.get(ctx, path, &commits); err != nil {
			if isRateLimitStatus(err) {
				snapshot.RateLimited = true
				break
			}
			// empty repos return 409, private history 403-alikes are caught
			// above; anything else is a per-repo failure we skip past
			c.log.Warn("skipping commit history for repo",
				zap.String("repo", repo.Name), zap.Error(err))
			counted++
			continue
		}
		counted++

		for _, commit := range commits {
			in30, inWeek := commitWindows(commit.Commit.Author.Date, now)
			if in30 {
				last30++
			}
			if inWeek {
				week++
			}
		}
	}

	if snapshot.RateLimited && counted == 0 {
		return CommitCounts{
			Last30Days: Unavailable(SentinelRateLimited),
			ThisWeek:   Unavailable(SentinelRateLimited),
		}
	}
	return CommitCounts{Last30Days: Count(last30), ThisWeek: Count(week)}
}

// commitWindows classifies a commit timestamp against the 30-day and 7-day
// windows ending at now. Both cutoffs are inclusive.
func commitWindows(at, now time.Time) (last30, week bool) {
	if at.IsZero() {
		return false, false
	}
	last30 = !at.Before(now.Add(-commitWindow))
	week = last30 && !at.Before(now.Add(-weekWindow))
	return last30, week
}

// remainingQuota preflights the rate-limit endpoint. -1 means unknown, in
// which case the fetch proceeds normally.
func (c *GitHubClient) remainingQuota(ctx context.Context) int {
	var rl rateLimitResponse
	if err := c.get(ctx, "/rate_limit", &rl); err != nil {
		c.log.Warn("github rate limit preflight failed", zap.Error(err))
		return -1
	}
	return rl.Resources.Core.Remaining
}

func (c *GitHubClient) get(ctx context.Context, path string, out any) error {
	headers := map[string]string{
		"Accept": "application/vnd.github+json",
	}
	if c.token != "" {
		headers["Authorization"] = "Bearer " + c.token
	}
	return c.client.GetJSON(ctx, c.baseURL+path, headers, out)
}

func isRateLimitStatus(err error) bool {
	var se *fetch.StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusForbidden || se.Code == http.StatusTooManyRequests
}
