// Package models defines the core data structures for gitquest.
package models

import "time"

// Metric names a counter tracked from the remote API.
type Metric string

const (
	MetricCommits       Metric = "commits"
	MetricPRsCreated    Metric = "prs_created"
	MetricPRsMerged     Metric = "prs_merged"
	MetricIssuesCreated Metric = "issues_created"
	MetricIssuesClosed  Metric = "issues_closed"
	MetricReviews       Metric = "reviews"
	MetricStars         Metric = "stars"
	MetricContributions Metric = "contributions"
)

// AllMetrics lists every metric in a stable order.
func AllMetrics() []Metric {
	return []Metric{
		MetricCommits,
		MetricPRsCreated,
		MetricPRsMerged,
		MetricIssuesCreated,
		MetricIssuesClosed,
		MetricReviews,
		MetricStars,
		MetricContributions,
	}
}

// IsValid reports whether m is a known metric.
func (m Metric) IsValid() bool {
	for _, known := range AllMetrics() {
		if m == known {
			return true
		}
	}
	return false
}

// StatsSnapshot holds absolute point-in-time counters fetched from GitHub.
// A snapshot is never modified after it is fetched; the next fetch supersedes it.
type StatsSnapshot struct {
	Subject       string    `json:"subject"`
	Commits       int64     `json:"commits"`
	PRsCreated    int64     `json:"prs_created"`
	PRsMerged     int64     `json:"prs_merged"`
	IssuesCreated int64     `json:"issues_created"`
	IssuesClosed  int64     `json:"issues_closed"`
	Reviews       int64     `json:"reviews"`
	Stars         int64     `json:"stars"`
	Contributions int64     `json:"contributions"` // contribution calendar total (last year)
	Languages     int       `json:"languages"`     // distinct primary languages across owned repos
	LanguageNames []string  `json:"language_names,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// Value returns the counter for a metric.
func (s StatsSnapshot) Value(m Metric) int64 {
	switch m {
	case MetricCommits:
		return s.Commits
	case MetricPRsCreated:
		return s.PRsCreated
	case MetricPRsMerged:
		return s.PRsMerged
	case MetricIssuesCreated:
		return s.IssuesCreated
	case MetricIssuesClosed:
		return s.IssuesClosed
	case MetricReviews:
		return s.Reviews
	case MetricStars:
		return s.Stars
	case MetricContributions:
		return s.Contributions
	default:
		return 0
	}
}

// StatsDelta is the non-negative per-field difference between two snapshots.
type StatsDelta struct {
	Commits       int64 `json:"commits"`
	PRsCreated    int64 `json:"prs_created"`
	PRsMerged     int64 `json:"prs_merged"`
	IssuesCreated int64 `json:"issues_created"`
	IssuesClosed  int64 `json:"issues_closed"`
	Reviews       int64 `json:"reviews"`
	Stars         int64 `json:"stars"`
	Contributions int64 `json:"contributions"`
}

// Value returns the delta for a metric.
func (d StatsDelta) Value(m Metric) int64 {
	switch m {
	case MetricCommits:
		return d.Commits
	case MetricPRsCreated:
		return d.PRsCreated
	case MetricPRsMerged:
		return d.PRsMerged
	case MetricIssuesCreated:
		return d.IssuesCreated
	case MetricIssuesClosed:
		return d.IssuesClosed
	case MetricReviews:
		return d.Reviews
	case MetricStars:
		return d.Stars
	case MetricContributions:
		return d.Contributions
	default:
		return 0
	}
}

// IsZero reports whether every field is zero.
func (d StatsDelta) IsZero() bool {
	return d == StatsDelta{}
}

// HasActivity reports whether the delta contains work done by the subject.
// Stars are received, not done, so they do not count.
func (d StatsDelta) HasActivity() bool {
	return d.Commits > 0 || d.PRsCreated > 0 || d.PRsMerged > 0 ||
		d.IssuesCreated > 0 || d.IssuesClosed > 0 || d.Reviews > 0 ||
		d.Contributions > 0
}

// Add returns the field-wise sum of two deltas.
func (d StatsDelta) Add(o StatsDelta) StatsDelta {
	return StatsDelta{
		Commits:       d.Commits + o.Commits,
		PRsCreated:    d.PRsCreated + o.PRsCreated,
		PRsMerged:     d.PRsMerged + o.PRsMerged,
		IssuesCreated: d.IssuesCreated + o.IssuesCreated,
		IssuesClosed:  d.IssuesClosed + o.IssuesClosed,
		Reviews:       d.Reviews + o.Reviews,
		Stars:         d.Stars + o.Stars,
		Contributions: d.Contributions + o.Contributions,
	}
}

// RateLimitClass identifies a GitHub API rate limit bucket.
type RateLimitClass string

const (
	RateLimitCore    RateLimitClass = "core"
	RateLimitGraphQL RateLimitClass = "graphql"
	RateLimitSearch  RateLimitClass = "search"
)

// RateLimit is the remaining budget of one API class.
type RateLimit struct {
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"reset_at"`
}

// RateLimitInfo records the last known budget for every API class.
type RateLimitInfo struct {
	Core       RateLimit `json:"core"`
	GraphQL    RateLimit `json:"graphql"`
	Search     RateLimit `json:"search"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Get returns the budget for a class.
func (r RateLimitInfo) Get(class RateLimitClass) RateLimit {
	switch class {
	case RateLimitGraphQL:
		return r.GraphQL
	case RateLimitSearch:
		return r.Search
	default:
		return r.Core
	}
}

// Set stores the budget for a class.
func (r *RateLimitInfo) Set(class RateLimitClass, rl RateLimit) {
	switch class {
	case RateLimitGraphQL:
		r.GraphQL = rl
	case RateLimitSearch:
		r.Search = rl
	default:
		r.Core = rl
	}
}

// ExhaustedUntil returns the latest reset time of any class with no budget left,
// or the zero time when every class still has headroom.
func (r RateLimitInfo) ExhaustedUntil() time.Time {
	var until time.Time
	for _, rl := range []RateLimit{r.Core, r.GraphQL, r.Search} {
		if rl.Limit > 0 && rl.Remaining == 0 && rl.ResetAt.After(until) {
			until = rl.ResetAt
		}
	}
	return until
}
