// Package stats compares remote statistics snapshots.
//
// Rewards are only ever computed from the delta between two snapshots, never
// from absolute totals: the first snapshot of a subject is a ramp-up point and
// produces no delta at all.
package stats

import (
	"fmt"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// Diff returns the field-wise non-negative difference current - previous.
// A nil previous yields the zero delta. Counters that decreased on the remote
// side (deleted PRs, unstarred repos) are floored at zero.
func Diff(previous *models.StatsSnapshot, current models.StatsSnapshot) models.StatsDelta {
	if previous == nil {
		return models.StatsDelta{}
	}
	return models.StatsDelta{
		Commits:       floor(current.Commits - previous.Commits),
		PRsCreated:    floor(current.PRsCreated - previous.PRsCreated),
		PRsMerged:     floor(current.PRsMerged - previous.PRsMerged),
		IssuesCreated: floor(current.IssuesCreated - previous.IssuesCreated),
		IssuesClosed:  floor(current.IssuesClosed - previous.IssuesClosed),
		Reviews:       floor(current.Reviews - previous.Reviews),
		Stars:         floor(current.Stars - previous.Stars),
		Contributions: floor(current.Contributions - previous.Contributions),
	}
}

func floor(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// Validate rejects snapshots the remote client should never produce.
func Validate(s models.StatsSnapshot) error {
	if s.Subject == "" {
		return fmt.Errorf("snapshot has no subject")
	}
	for _, m := range models.AllMetrics() {
		if v := s.Value(m); v < 0 {
			return fmt.Errorf("snapshot %s: negative %s counter %d", s.Subject, m, v)
		}
	}
	if s.Languages < 0 {
		return fmt.Errorf("snapshot %s: negative language count %d", s.Subject, s.Languages)
	}
	return nil
}

// ValidateDelta rejects deltas with negative fields.
func ValidateDelta(d models.StatsDelta) error {
	for _, m := range models.AllMetrics() {
		if v := d.Value(m); v < 0 {
			return fmt.Errorf("delta has negative %s field %d", m, v)
		}
	}
	return nil
}
