// Package stats fetches and normalizes GitHub and LeetCode activity snapshots.
package stats

import "encoding/json"

// Sentinel reasons substituted for a metric when real data is unavailable.
const (
	SentinelRateLimited       = "Rate Limited"
	SentinelRateLimitCritical = "Rate Limit Critical"
)

// Metric is a commit/problem count that may be unavailable. It marshals to a
// plain number when available and to the sentinel reason string otherwise, so
// consumers see the same wire shape the UI already renders.
type Metric struct {
	count     int
	reason    string
	available bool
}

// Count returns an available metric.
func Count(n int) Metric { return Metric{count: n, available: true} }

// Unavailable returns a metric carrying a sentinel reason.
func Unavailable(reason string) Metric { return Metric{reason: reason} }

// Available reports whether the metric holds a real count.
func (m Metric) Available() bool { return m.available }

// Value returns the count; only meaningful when Available.
func (m Metric) Value() int { return m.count }

// Reason returns the sentinel reason; empty when Available.
func (m Metric) Reason() string { return m.reason }

// MarshalJSON emits the count or the sentinel string.
func (m Metric) MarshalJSON() ([]byte, error) {
	if m.available {
		return json.Marshal(m.count)
	}
	return json.Marshal(m.reason)
}

// UnmarshalJSON accepts either wire form. Needed to round-trip cached payloads.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*m = Count(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = Unavailable(s)
	return nil
}
