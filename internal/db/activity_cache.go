package db

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// GetCacheEntry retrieves a cache entry. Expired entries are returned as-is.
// Returns nil if no entry exists.
func (db *DB) GetCacheEntry(subject string, kind models.DataKind) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	err := db.Where("subject_id = ? AND data_kind = ?", subject, kind).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// UpsertCacheEntry creates or overwrites the entry for (subject, kind).
func (db *DB) UpsertCacheEntry(entry *models.CacheEntry) error {
	entry.FetchedAt = entry.FetchedAt.UTC()
	entry.ExpiresAt = entry.ExpiresAt.UTC()
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_id"}, {Name: "data_kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at", "expires_at"}),
	}).Create(entry).Error
}

// ListCacheEntries returns every cache entry of a subject.
func (db *DB) ListCacheEntries(subject string) ([]models.CacheEntry, error) {
	var entries []models.CacheEntry
	err := db.Where("subject_id = ?", subject).Order("data_kind").Find(&entries).Error
	return entries, err
}

// ListExpiredCacheEntries returns every entry that expired before now.
func (db *DB) ListExpiredCacheEntries(now time.Time) ([]models.CacheEntry, error) {
	var entries []models.CacheEntry
	err := db.Where("expires_at < ?", now.UTC()).Order("subject_id, data_kind").Find(&entries).Error
	return entries, err
}

// DeleteExpiredCacheEntries removes every entry that expired before now.
func (db *DB) DeleteExpiredCacheEntries(now time.Time) (int64, error) {
	result := db.Where("expires_at < ?", now.UTC()).Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}
