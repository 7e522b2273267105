package models

import (
	"time"

	"github.com/goccy/go-json"
)

// ActionType classifies a ledger entry.
type ActionType string

const (
	ActionSync               ActionType = "sync"
	ActionSyncBaseline       ActionType = "sync_baseline"
	ActionChallengeCompleted ActionType = "challenge_completed"
	ActionManualGrant        ActionType = "manual_grant"
)

// XPHistory is one immutable reward event in the append-only ledger.
type XPHistory struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	SubjectID  string     `gorm:"size:100;index:idx_xp_history_subject" json:"subject_id"`
	ActionType ActionType `gorm:"size:32;index" json:"action_type"`
	XPAmount   int64      `gorm:"not null;default:0" json:"xp_amount"`
	Breakdown  string     `gorm:"type:text" json:"breakdown,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (XPHistory) TableName() string {
	return "xp_history"
}

// XPBreakdown itemizes where the XP of one reward event came from.
type XPBreakdown struct {
	Commits        int64 `json:"commits"`
	PRsCreated     int64 `json:"prs_created"`
	PRsMerged      int64 `json:"prs_merged"`
	IssuesCreated  int64 `json:"issues_created"`
	IssuesClosed   int64 `json:"issues_closed"`
	Reviews        int64 `json:"reviews"`
	Stars          int64 `json:"stars"`
	StreakBonus    int64 `json:"streak_bonus"`
	ChallengeBonus int64 `json:"challenge_bonus,omitempty"`
	Manual         int64 `json:"manual,omitempty"`
}

// Total sums every line item.
func (b XPBreakdown) Total() int64 {
	return b.Commits + b.PRsCreated + b.PRsMerged + b.IssuesCreated +
		b.IssuesClosed + b.Reviews + b.Stars + b.StreakBonus +
		b.ChallengeBonus + b.Manual
}

// StreakEffect is the streak state produced by a sync entry.
type StreakEffect struct {
	ActivityDate string `json:"activity_date"`
	Current      int    `json:"current"`
	Longest      int    `json:"longest"`
	Milestone    int    `json:"milestone"`
}

// LedgerBreakdown is the JSON stored in XPHistory.Breakdown. It carries
// everything needed to fold the entry into UserStats without re-diffing.
type LedgerBreakdown struct {
	XP    XPBreakdown `json:"xp"`
	Delta StatsDelta  `json:"delta"`

	// Snapshot is the remote state this entry was computed against. The
	// newest sync entry's snapshot is the baseline for the next diff.
	Snapshot *StatsSnapshot `json:"snapshot,omitempty"`

	Streak      *StreakEffect `json:"streak,omitempty"`
	ChallengeID string        `json:"challenge_id,omitempty"`
	Reason      string        `json:"reason,omitempty"`
}

// SetBreakdown encodes b into the Breakdown column.
func (h *XPHistory) SetBreakdown(b LedgerBreakdown) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	h.Breakdown = string(data)
	return nil
}

// GetBreakdown decodes the Breakdown column. An empty column yields a zero value.
func (h *XPHistory) GetBreakdown() (LedgerBreakdown, error) {
	var b LedgerBreakdown
	if h.Breakdown == "" {
		return b, nil
	}
	err := json.Unmarshal([]byte(h.Breakdown), &b)
	return b, err
}
