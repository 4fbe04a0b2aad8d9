// Package profile resolves the portfolio owner's connected account usernames.
// The real account store lives outside this service; this package is the seam
// it plugs into.
package profile

import (
	"context"
	"os"
)

// Profile carries the connected usernames used to parametrize stat fetches.
type Profile struct {
	GitHubUsername   string
	LeetCodeUsername string
}

// Store looks up the current owner's profile.
type Store interface {
	Lookup(ctx context.Context) (Profile, error)
}

// EnvStore serves the profile from environment variables. It stands in for
// the user-profile service when the core runs on its own.
type EnvStore struct {
	profile Profile
}

// NewEnvStore reads DEFAULT_GITHUB_USERNAME and DEFAULT_LEETCODE_USERNAME.
func NewEnvStore() *EnvStore {
	return &EnvStore{profile: Profile{
		GitHubUsername:   os.Getenv("DEFAULT_GITHUB_USERNAME"),
		LeetCodeUsername: os.Getenv("DEFAULT_LEETCODE_USERNAME"),
	}}
}

func (s *EnvStore) Lookup(ctx context.Context) (Profile, error) {
	return s.profile, nil
}
