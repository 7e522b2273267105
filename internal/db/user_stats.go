package db

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// GetUserStats retrieves the aggregate state of a subject.
// Returns the initial state if the subject has never been synced.
func (db *DB) GetUserStats(subject string) (*models.UserStats, error) {
	var stats models.UserStats
	err := db.Where("subject_id = ?", subject).First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewUserStats(subject), nil
		}
		return nil, err
	}
	return &stats, nil
}

// SaveUserStats inserts or replaces the aggregate state of a subject.
func (db *DB) SaveUserStats(stats *models.UserStats) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_xp", "current_level",
			"current_streak", "longest_streak", "streak_milestone", "last_activity_date",
			"total_commits", "total_prs", "total_reviews", "total_issues",
			"applied_entry_id", "updated_at",
		}),
	}).Create(stats).Error
}

// ListSubjects returns every subject with a persisted aggregate.
func (db *DB) ListSubjects() ([]string, error) {
	var subjects []string
	err := db.Model(&models.UserStats{}).Order("subject_id").Pluck("subject_id", &subjects).Error
	return subjects, err
}

// ListTopUserStats returns aggregates ordered by total XP.
func (db *DB) ListTopUserStats(limit int) ([]models.UserStats, error) {
	var stats []models.UserStats
	q := db.Order("total_xp DESC, subject_id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&stats).Error
	return stats, err
}

// LockSubject blocks every other writer of subject, in this process or
// another one, until the surrounding transaction ends. Call it first inside
// Transaction.
func (db *DB) LockSubject(subject string) error {
	if db.driver == DriverPostgres {
		return db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", subject).Error
	}
	// SQLite takes the database write lock on the first write statement,
	// whether or not it matches a row.
	return db.Exec("UPDATE user_stats SET updated_at = updated_at WHERE subject_id = ?", subject).Error
}
