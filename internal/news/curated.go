package news

import "time"

// CuratedFallback returns the hardcoded article list served when every live
// source comes back empty. The caller must never see an empty news response.
func CuratedFallback() []Article {
	now := time.Now()
	return []Article{
		{
			Title:       "The State of Developer Tooling",
			Description: "A look at the editors, terminals and build systems developers actually use day to day.",
			URL:         "https://github.blog/",
			PublishedAt: now,
			SourceName:  "Curated",
			TopicTag:    "Programming",
		},
		{
			Title:       "Why In-Memory Caching Still Matters",
			Description: "TTL caches, eviction strategies and the cost of a cold start.",
			URL:         "https://martinfowler.com/",
			PublishedAt: now,
			SourceName:  "Curated",
			TopicTag:    "Tech",
		},
		{
			Title:       "Machine Learning Papers Worth Reading",
			Description: "A short list of approachable papers for practitioners getting into ML.",
			URL:         "https://paperswithcode.com/",
			PublishedAt: now,
			SourceName:  "Curated",
			TopicTag:    "AI",
		},
		{
			Title:       "Keeping Dependencies Secure",
			Description: "Supply-chain hygiene for small teams: lockfiles, audits and update cadence.",
			URL:         "https://owasp.org/",
			PublishedAt: now,
			SourceName:  "Curated",
			TopicTag:    "Security",
		},
		{
			Title:       "Open Source Projects Looking for Contributors",
			Description: "Good first issues across popular repositories this month.",
			URL:         "https://goodfirstissue.dev/",
			PublishedAt: now,
			SourceName:  "Curated",
			TopicTag:    "Open Source",
		},
	}
}
