package models

import (
	"strings"
	"time"
)

// DataKind names a kind of cached payload.
type DataKind string

const (
	KindStats     DataKind = "stats"
	KindProfile   DataKind = "profile"
	KindRateLimit DataKind = "rate_limit"

	// kindDailySnapshotPrefix prefixes per-day snapshot kinds (snapshot:2026-01-02).
	kindDailySnapshotPrefix = "snapshot:"
)

// DailySnapshotKind returns the cache kind holding the snapshot of one calendar day.
func DailySnapshotKind(date string) DataKind {
	return DataKind(kindDailySnapshotPrefix + date)
}

// IsDailySnapshot reports whether k is a per-day snapshot kind.
func (k DataKind) IsDailySnapshot() bool {
	return strings.HasPrefix(string(k), kindDailySnapshotPrefix)
}

// CacheEntry is one cached payload for a (subject, kind) pair.
// ExpiresAt is always after FetchedAt.
type CacheEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SubjectID string    `gorm:"size:100;not null;uniqueIndex:idx_cache_subject_kind" json:"subject_id"`
	DataKind  DataKind  `gorm:"size:64;not null;uniqueIndex:idx_cache_subject_kind" json:"data_kind"`
	Payload   string    `gorm:"type:text" json:"payload"`
	FetchedAt time.Time `gorm:"not null" json:"fetched_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

// TableName specifies the table name for GORM.
func (CacheEntry) TableName() string {
	return "activity_cache"
}

// IsExpired reports whether the entry is past its expiry at now.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
