package app

import (
	"net/http"

	"devfolio/internal/apperr"
)

// handleGitHubStats serves GET /stats/github?username=<string>.
// A fresh snapshot is cached for StatsCacheTTL; within the window the cached
// payload is returned verbatim without touching the GitHub API.
func (s *Server) handleGitHubStats(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		username = s.defaultGitHubUsername(r)
	}
	if username == "" {
		s.writeError(w, apperr.Validation("username parameter is required"))
		return
	}

	if snapshot, ok := s.githubCache.Get(username); ok {
		s.writeJSON(w, http.StatusOK, snapshot)
		return
	}

	snapshot, err := s.github.FetchSnapshot(r.Context(), username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.githubCache.Set(username, snapshot)
	s.writeJSON(w, http.StatusOK, snapshot)
}

// handleLeetCodeStats serves GET /stats/leetcode?username=<string>.
func (s *Server) handleLeetCodeStats(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		username = s.defaultLeetCodeUsername(r)
	}
	if username == "" {
		s.writeError(w, apperr.Validation("username parameter is required"))
		return
	}

	if snapshot, ok := s.leetcodeCache.Get(username); ok {
		s.writeJSON(w, http.StatusOK, snapshot)
		return
	}

	snapshot, err := s.leetcode.FetchSnapshot(r.Context(), username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.leetcodeCache.Set(username, snapshot)
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) defaultGitHubUsername(r *http.Request) string {
	p, err := s.profiles.Lookup(r.Context())
	if err != nil {
		return ""
	}
	return p.GitHubUsername
}

func (s *Server) defaultLeetCodeUsername(r *http.Request) string {
	p, err := s.profiles.Lookup(r.Context())
	if err != nil {
		return ""
	}
	return p.LeetCodeUsername
}
