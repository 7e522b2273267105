package db

import (
	"time"

	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// GetEarnedBadges returns every badge a subject has earned, oldest first.
func (db *DB) GetEarnedBadges(subject string) ([]models.EarnedBadge, error) {
	var badges []models.EarnedBadge
	err := db.Where("subject_id = ?", subject).Order("earned_at ASC, id ASC").Find(&badges).Error
	return badges, err
}

// EarnedBadgeSet returns the ids of every badge a subject has earned.
func (db *DB) EarnedBadgeSet(subject string) (map[string]bool, error) {
	var ids []string
	if err := db.Model(&models.EarnedBadge{}).Where("subject_id = ?", subject).Pluck("badge_id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// InsertBadge records a badge for a subject. It reports false, without error,
// when the badge had already been earned.
func (db *DB) InsertBadge(subject, badgeID string, earnedAt time.Time) (bool, error) {
	badge := models.EarnedBadge{
		SubjectID: subject,
		BadgeID:   badgeID,
		EarnedAt:  earnedAt.UTC(),
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(&badge)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
