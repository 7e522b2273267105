package db

import (
	"errors"

	"gorm.io/gorm"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// AppendXP appends an entry to the ledger. The entry's ID is set on success.
func (db *DB) AppendXP(entry *models.XPHistory) error {
	if entry.ID != 0 {
		return errors.New("ledger entries are append-only")
	}
	return db.Create(entry).Error
}

// GetXPHistory returns the newest ledger entries of a subject, newest first.
func (db *DB) GetXPHistory(subject string, limit int) ([]models.XPHistory, error) {
	var entries []models.XPHistory
	q := db.Where("subject_id = ?", subject).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&entries).Error
	return entries, err
}

// GetXPEntriesAfter returns a subject's entries with id > afterID in id order.
func (db *DB) GetXPEntriesAfter(subject string, afterID uint) ([]models.XPHistory, error) {
	var entries []models.XPHistory
	err := db.Where("subject_id = ? AND id > ?", subject, afterID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// SumXP returns the sum of xp_amount over all ledger entries of a subject.
func (db *DB) SumXP(subject string) (int64, error) {
	var total int64
	err := db.Model(&models.XPHistory{}).
		Where("subject_id = ?", subject).
		Select("COALESCE(SUM(xp_amount), 0)").
		Scan(&total).Error
	return total, err
}

// GetLatestSyncEntry returns the newest sync or sync_baseline entry of a subject.
// Returns nil if the subject has never been synced.
func (db *DB) GetLatestSyncEntry(subject string) (*models.XPHistory, error) {
	var entry models.XPHistory
	err := db.Where("subject_id = ? AND action_type IN ?", subject,
		[]models.ActionType{models.ActionSync, models.ActionSyncBaseline}).
		Order("id DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// CountXPEntries returns the number of ledger entries of a subject.
func (db *DB) CountXPEntries(subject string) (int64, error) {
	var n int64
	err := db.Model(&models.XPHistory{}).Where("subject_id = ?", subject).Count(&n).Error
	return n, err
}
