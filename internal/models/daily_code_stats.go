package models

import "time"

// DailyCodeStats holds line-change counters for one repository on one day.
type DailyCodeStats struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubjectID    string    `gorm:"size:100;not null;uniqueIndex:idx_code_stats_day" json:"subject_id"`
	Date         string    `gorm:"size:10;not null;uniqueIndex:idx_code_stats_day" json:"date"`
	Repo         string    `gorm:"size:255;not null;uniqueIndex:idx_code_stats_day" json:"repo"`
	Commits      int64     `gorm:"default:0" json:"commits"`
	Additions    int64     `gorm:"default:0" json:"additions"`
	Deletions    int64     `gorm:"default:0" json:"deletions"`
	FilesChanged int64     `gorm:"default:0" json:"files_changed"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (DailyCodeStats) TableName() string {
	return "daily_code_stats"
}
