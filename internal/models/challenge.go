package models

import "time"

// ChallengeType is the window length of a challenge.
type ChallengeType string

const (
	ChallengeDaily  ChallengeType = "daily"
	ChallengeWeekly ChallengeType = "weekly"
)

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

const (
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
	ChallengeExpired   ChallengeStatus = "expired"
)

// Challenge is a time-boxed goal on one metric.
type Challenge struct {
	ID        string        `gorm:"primaryKey;size:36" json:"id"`
	SubjectID string        `gorm:"size:100;not null;uniqueIndex:idx_challenge_window;index" json:"subject_id"`
	Type      ChallengeType `gorm:"size:10;not null;uniqueIndex:idx_challenge_window" json:"type"`
	Metric    Metric        `gorm:"size:32;not null;uniqueIndex:idx_challenge_window" json:"target_metric"`

	TargetValue  int64 `gorm:"not null" json:"target_value"`
	CurrentValue int64 `gorm:"default:0" json:"current_value"`
	RewardXP     int64 `gorm:"default:0" json:"reward_xp"`

	WindowStart time.Time `gorm:"not null;uniqueIndex:idx_challenge_window" json:"window_start"`
	WindowEnd   time.Time `gorm:"not null;index" json:"window_end"`

	Status      ChallengeStatus `gorm:"size:12;default:active;index" json:"status"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Challenge) TableName() string {
	return "challenges"
}

// IsActive reports whether the challenge can still make progress.
func (c *Challenge) IsActive() bool {
	return c.Status == ChallengeActive
}

// Contains reports whether t falls inside the challenge window [start, end).
func (c *Challenge) Contains(t time.Time) bool {
	return !t.Before(c.WindowStart) && t.Before(c.WindowEnd)
}
