package models

import "time"

// CredentialStatus records whether the configured GitHub token last worked.
type CredentialStatus string

const (
	CredentialUnknown CredentialStatus = "UNKNOWN"
	CredentialValid   CredentialStatus = "VALID"
	CredentialInvalid CredentialStatus = "INVALID"
)

// AppStateID is the primary key of the single application state row.
const AppStateID = "default"

// AppState represents installation-wide application state.
type AppState struct {
	ID               string           `gorm:"primaryKey;size:64" json:"id"`
	CredentialStatus CredentialStatus `gorm:"size:20;default:UNKNOWN" json:"credential_status"`
	CredentialError  string           `gorm:"type:text" json:"credential_error"`
	TrackingID       string           `gorm:"size:64" json:"tracking_id"`
	// AppVersion is the last gitquest version that opened the database.
	AppVersion       string           `gorm:"size:64" json:"app_version"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (AppState) TableName() string {
	return "app_state"
}

// SyncDisabled returns true when sync must not run until credentials are reset.
func (s *AppState) SyncDisabled() bool {
	return s.CredentialStatus == CredentialInvalid
}
