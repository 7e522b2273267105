package db

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// GetSyncMetadata retrieves the metadata of one sync stream.
// Returns nil if the stream has never been recorded.
func (db *DB) GetSyncMetadata(subject string, syncType models.SyncType) (*models.SyncMetadata, error) {
	var meta models.SyncMetadata
	err := db.Where("subject_id = ? AND sync_type = ?", subject, syncType).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meta, nil
}

// SaveSyncMetadata creates or updates the metadata of one sync stream.
func (db *DB) SaveSyncMetadata(meta *models.SyncMetadata) error {
	meta.ID = 0
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject_id"}, {Name: "sync_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_sync_at", "cursor", "e_tag", "rate_limit", "last_error", "error_kind", "retry_at", "updated_at",
		}),
	}).Create(meta).Error
}

