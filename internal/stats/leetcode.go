package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"devfolio/internal/apperr"
	"devfolio/internal/fetch"
)

const defaultLeetCodeEndpoint = "https://leetcode.com/graphql"

// one query fetches calendar, submission stats and profile together
const leetCodeQuery = `query userStats($username: String!) {
  matchedUser(username: $username) {
    username
    userCalendar {
      submissionCalendar
      totalActiveDays
    }
    submitStats {
      acSubmissionNum {
        difficulty
        count
      }
    }
    profile {
      ranking
      reputation
    }
  }
}`

// LeetCodeClient fetches a user's solve statistics from the LeetCode GraphQL API.
type LeetCodeClient struct {
	client   *fetch.Client
	log      *zap.Logger
	endpoint string
}

// NewLeetCodeClient creates a LeetCodeClient. An empty endpoint uses the
// public GraphQL endpoint; tests point it at a local server.
func NewLeetCodeClient(client *fetch.Client, log *zap.Logger, endpoint string) *LeetCodeClient {
	if endpoint == "" {
		endpoint = defaultLeetCodeEndpoint
	}
	return &LeetCodeClient{client: client, log: log, endpoint: endpoint}
}

// LeetCodeSnapshot is the normalized response for /stats/leetcode.
type LeetCodeSnapshot struct {
	TotalSolved          int            `json:"totalSolved"`
	ProblemsThisWeek     int            `json:"problemsThisWeek"`
	ProblemsByDifficulty map[string]int `json:"problemsByDifficulty"`
	TotalActiveDays      int            `json:"totalActiveDays"`
	Ranking              int            `json:"ranking"`
	Reputation           int            `json:"reputation"`
	Username             string         `json:"username"`
}

type leetCodeResponse struct {
	Data struct {
		MatchedUser *struct {
			Username     string `json:"username"`
			UserCalendar struct {
				SubmissionCalendar string `json:"submissionCalendar"`
				TotalActiveDays    int    `json:"totalActiveDays"`
			} `json:"userCalendar"`
			SubmitStats struct {
				AcSubmissionNum []struct {
					Difficulty string `json:"difficulty"`
					Count      int    `json:"count"`
				} `json:"acSubmissionNum"`
			} `json:"submitStats"`
			Profile struct {
				Ranking    int `json:"ranking"`
				Reputation int `json:"reputation"`
			} `json:"profile"`
		} `json:"matchedUser"`
	} `json:"data"`
}

// FetchSnapshot runs the combined GraphQL query for username.
func (c *LeetCodeClient) FetchSnapshot(ctx context.Context, username string) (*LeetCodeSnapshot, error) {
	body, err := json.Marshal(map[string]any{
		"query":     leetCodeQuery,
		"variables": map[string]string{"username": username},
	})
	if err != nil {
		return nil, apperr.Internal("encoding LeetCode query", err)
	}

	resp, err := c.client.Post(ctx, c.endpoint, map[string]string{
		"Content-Type": "application/json",
		"Referer":      "https://leetcode.com",
	}, body)
	if err != nil {
		return nil, apperr.Internal("querying LeetCode", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, apperr.RateLimited("LeetCode API rate limit exceeded")
	default:
		return nil, apperr.Upstream(resp.StatusCode, "unexpected LeetCode response")
	}

	var decoded leetCodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperr.Internal("decoding LeetCode response", err)
	}
	user := decoded.Data.MatchedUser
	if user == nil {
		return nil, apperr.NotFound("LeetCode user not found")
	}

	snapshot := &LeetCodeSnapshot{
		Username:             user.Username,
		TotalActiveDays:      user.UserCalendar.TotalActiveDays,
		Ranking:              user.Profile.Ranking,
		Reputation:           user.Profile.Reputation,
		ProblemsByDifficulty: make(map[string]int),
	}

	// the "All" bucket is authoritative when present; summing the
	// per-difficulty buckets is the fallback, never both
	allBucket := -1
	sum := 0
	for _, bucket := range user.SubmitStats.AcSubmissionNum {
		if bucket.Difficulty == "All" {
			allBucket = bucket.Count
			continue
		}
		snapshot.ProblemsByDifficulty[bucket.Difficulty] = bucket.Count
		sum += bucket.Count
	}
	if allBucket >= 0 {
		snapshot.TotalSolved = allBucket
	} else {
		snapshot.TotalSolved = sum
	}

	snapshot.ProblemsThisWeek = c.countThisWeek(user.UserCalendar.SubmissionCalendar)
	return snapshot, nil
}

// countThisWeek sums calendar entries whose unix-day timestamp falls within
// the last 7 days. The calendar arrives as a JSON object serialized into a
// string, keyed by unix seconds.
func (c *LeetCodeClient) countThisWeek(calendar string) int {
	if calendar == "" {
		return 0
	}
	var days map[string]int
	if err := json.Unmarshal([]byte(calendar), &days); err != nil {
		c.log.Warn("unparseable LeetCode submission calendar", zap.Error(err))
		return 0
	}

	cutoff := time.Now().Add(-weekWindow).Unix()
	total := 0
	for ts, count := range days {
		unix, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			continue
		}
		if unix >= cutoff {
			total += count
		}
	}
	return total
}
