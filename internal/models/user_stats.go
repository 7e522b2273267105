package models

import "time"

// DateLayout is the calendar-day format used for activity dates.
const DateLayout = "2006-01-02"

// UserStats is the aggregate gamification state of one subject.
// It only ever moves forward by applying ledger entries in id order.
type UserStats struct {
	SubjectID string `gorm:"primaryKey;size:100" json:"subject_id"`

	TotalXP      int64 `gorm:"default:0" json:"total_xp"`
	CurrentLevel int   `gorm:"default:1" json:"current_level"`

	// Streak
	CurrentStreak    int    `gorm:"default:0" json:"current_streak"`
	LongestStreak    int    `gorm:"default:0" json:"longest_streak"`
	StreakMilestone  int    `gorm:"default:0" json:"streak_milestone"` // highest milestone paid in the current run
	LastActivityDate string `gorm:"size:10" json:"last_activity_date"`

	// Lifetime counters (since tracking started)
	TotalCommits int64 `gorm:"default:0" json:"total_commits"`
	TotalPRs     int64 `gorm:"column:total_prs;default:0" json:"total_prs"`
	TotalReviews int64 `gorm:"default:0" json:"total_reviews"`
	TotalIssues  int64 `gorm:"default:0" json:"total_issues"`

	// AppliedEntryID is the id of the last xp_history entry folded into this row.
	AppliedEntryID uint `gorm:"default:0" json:"applied_entry_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (UserStats) TableName() string {
	return "user_stats"
}

// NewUserStats returns the initial state for a subject.
func NewUserStats(subject string) *UserStats {
	return &UserStats{
		SubjectID:    subject,
		CurrentLevel: 1,
	}
}
