package db

import (
	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// UpsertDailyCodeStats writes per-day counters, replacing existing rows for
// the same (subject, date, repo).
func (db *DB) UpsertDailyCodeStats(rows []models.DailyCodeStats) error {
	if len(rows) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject_id"}, {Name: "date"}, {Name: "repo"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"commits", "additions", "deletions", "files_changed", "updated_at",
		}),
	}).CreateInBatches(rows, 100).Error
}

// GetDailyCodeStats returns a subject's counters for dates in [from, to].
// Dates use the YYYY-MM-DD layout. Empty bounds are open.
func (db *DB) GetDailyCodeStats(subject, from, to string) ([]models.DailyCodeStats, error) {
	var rows []models.DailyCodeStats
	q := db.Where("subject_id = ?", subject)
	if from != "" {
		q = q.Where("date >= ?", from)
	}
	if to != "" {
		q = q.Where("date <= ?", to)
	}
	err := q.Order("date ASC, repo ASC").Find(&rows).Error
	return rows, err
}
