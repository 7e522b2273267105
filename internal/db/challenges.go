package db

import (
	"time"

	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// CreateChallenge inserts a challenge unless one already exists for the same
// subject, type, metric and window. Reports whether a row was inserted.
func (db *DB) CreateChallenge(ch *models.Challenge) (bool, error) {
	ch.WindowStart = ch.WindowStart.UTC()
	ch.WindowEnd = ch.WindowEnd.UTC()
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "subject_id"}, {Name: "type"}, {Name: "metric"}, {Name: "window_start"},
		},
		DoNothing: true,
	}).Create(ch)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetActiveChallenges returns a subject's active challenges ordered by window end.
func (db *DB) GetActiveChallenges(subject string) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := db.Where("subject_id = ? AND status = ?", subject, models.ChallengeActive).
		Order("window_end ASC, type ASC, metric ASC").
		Find(&challenges).Error
	return challenges, err
}

// ListChallenges returns a subject's challenges, newest window first.
func (db *DB) ListChallenges(subject string, limit int) ([]models.Challenge, error) {
	var challenges []models.Challenge
	q := db.Where("subject_id = ?", subject).Order("window_start DESC, type ASC, metric ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&challenges).Error
	return challenges, err
}

// SaveChallenge persists progress and status changes of a challenge.
func (db *DB) SaveChallenge(ch *models.Challenge) error {
	return db.Model(ch).Select("current_value", "status", "completed_at", "updated_at").Updates(ch).Error
}

// RecentChallengeValues returns the final values of the most recent windows of
// a challenge stream that started before the given time, newest first.
func (db *DB) RecentChallengeValues(subject string, typ models.ChallengeType, metric models.Metric, before time.Time, limit int) ([]int64, error) {
	var values []int64
	err := db.Model(&models.Challenge{}).
		Where("subject_id = ? AND type = ? AND metric = ? AND window_start < ?", subject, typ, metric, before.UTC()).
		Order("window_start DESC").
		Limit(limit).
		Pluck("current_value", &values).Error
	return values, err
}

// ExpireChallenges marks every active challenge whose window ended before now
// as expired. Returns the number of challenges expired.
func (db *DB) ExpireChallenges(subject string, now time.Time) (int64, error) {
	result := db.Model(&models.Challenge{}).
		Where("subject_id = ? AND status = ? AND window_end < ?", subject, models.ChallengeActive, now.UTC()).
		Updates(map[string]any{
			"status":     models.ChallengeExpired,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}
