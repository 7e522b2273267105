package models

import (
	"time"

	"github.com/goccy/go-json"
)

// SyncType names one synchronization stream of a subject.
type SyncType string

const (
	SyncTypeActivity          SyncType = "activity"
	SyncTypeChallengeProgress SyncType = "challenge_progress"
	SyncTypeCodeStats         SyncType = "code_stats"
)

// SyncMetadata stores bookkeeping for one (subject, sync type) stream.
type SyncMetadata struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	SubjectID  string     `gorm:"size:100;not null;uniqueIndex:idx_sync_metadata_subject_type" json:"subject_id"`
	SyncType   SyncType   `gorm:"size:32;not null;uniqueIndex:idx_sync_metadata_subject_type" json:"sync_type"`
	LastSyncAt *time.Time `json:"last_sync_at"`
	Cursor     string     `gorm:"size:255" json:"cursor"`
	ETag       string     `gorm:"size:255" json:"etag"`
	RateLimit  string     `gorm:"type:text" json:"rate_limit"`
	LastError  string     `gorm:"type:text" json:"last_error"`
	ErrorKind  string     `gorm:"size:32" json:"error_kind"`
	RetryAt    *time.Time `json:"retry_at,omitempty"` // no sync before this time
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (SyncMetadata) TableName() string {
	return "sync_metadata"
}

// SetRateLimit encodes the rate limit snapshot.
func (m *SyncMetadata) SetRateLimit(info RateLimitInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	m.RateLimit = string(data)
	return nil
}

// GetRateLimit decodes the rate limit snapshot. Returns nil when none is recorded.
func (m *SyncMetadata) GetRateLimit() (*RateLimitInfo, error) {
	if m.RateLimit == "" {
		return nil, nil
	}
	var info RateLimitInfo
	if err := json.Unmarshal([]byte(m.RateLimit), &info); err != nil {
		return nil, err
	}
	return &info, nil
}
