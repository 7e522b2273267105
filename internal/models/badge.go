package models

import "time"

// EarnedBadge records that a subject earned a badge. It is created at most
// once per (subject, badge) and never deleted.
type EarnedBadge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SubjectID string    `gorm:"size:100;not null;uniqueIndex:idx_badges_subject_badge" json:"subject_id"`
	BadgeID   string    `gorm:"size:64;not null;uniqueIndex:idx_badges_subject_badge" json:"badge_id"`
	EarnedAt  time.Time `gorm:"not null" json:"earned_at"`
}

// TableName specifies the table name for GORM.
func (EarnedBadge) TableName() string {
	return "badges"
}
