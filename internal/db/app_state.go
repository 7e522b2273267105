package db

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// GetAppState retrieves the application state.
func (db *DB) GetAppState() (*models.AppState, error) {
	var state models.AppState
	err := db.Where("id = ?", models.AppStateID).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.AppState{
				ID:               models.AppStateID,
				CredentialStatus: models.CredentialUnknown,
			}, nil
		}
		return nil, err
	}
	return &state, nil
}

// SetCredentialStatus records the outcome of the last authenticated call.
func (db *DB) SetCredentialStatus(status models.CredentialStatus, message string) error {
	state := models.AppState{
		ID:               models.AppStateID,
		CredentialStatus: status,
		CredentialError:  message,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"credential_status", "credential_error", "updated_at"}),
	}).Create(&state).Error
}

// ResetCredentials clears a recorded credential failure so sync can run again.
func (db *DB) ResetCredentials() error {
	return db.SetCredentialStatus(models.CredentialUnknown, "")
}

// SetAppVersion records the gitquest version that opened the database.
func (db *DB) SetAppVersion(v string) error {
	state := models.AppState{
		ID:               models.AppStateID,
		CredentialStatus: models.CredentialUnknown,
		AppVersion:       v,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"app_version", "updated_at"}),
	}).Create(&state).Error
}

// GetOrCreateTrackingID returns the persistent tracking ID, creating one if it doesn't exist.
// On any error, it falls back to generating a per-session ID.
func (db *DB) GetOrCreateTrackingID() string {
	state, err := db.GetAppState()
	if err != nil {
		return generateSessionID()
	}

	if state.TrackingID != "" {
		return state.TrackingID
	}

	trackingID := generateSessionID()

	state.TrackingID = trackingID
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tracking_id", "updated_at"}),
	}).Create(state).Error
	if err != nil {
		// Even if save fails, return the generated ID for this session
		return trackingID
	}

	return trackingID
}

// generateSessionID creates a new UUID for session-based tracking.
func generateSessionID() string {
	return uuid.New().String()
}
