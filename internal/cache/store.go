// Package cache stores JSON payloads keyed by (subject, data kind) with an
// expiry time. The store never decides freshness on its own: callers pass the
// TTL on write and decide what to do with an expired entry on read.
package cache

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/asteroid-belt/gitquest/internal/db"
	"github.com/asteroid-belt/gitquest/internal/log"
	"github.com/asteroid-belt/gitquest/internal/metrics"
	"github.com/asteroid-belt/gitquest/internal/models"
)

// Store persists cache entries in the activity_cache table.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a cache store over a database.
func NewStore(database *db.DB, opts ...Option) *Store {
	s := &Store{db: database, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the entry for (subject, kind), expired or not.
// Returns nil, nil when nothing is cached.
func (s *Store) Get(subject string, kind models.DataKind) (*models.CacheEntry, error) {
	entry, err := s.db.GetCacheEntry(subject, kind)
	if err != nil {
		return nil, fmt.Errorf("get cache entry %s/%s: %w", subject, kind, err)
	}
	if entry == nil {
		metrics.CacheReads.WithLabelValues(metricKind(kind), "miss").Inc()
		return nil, nil
	}
	if entry.IsExpired(s.now()) {
		metrics.CacheReads.WithLabelValues(metricKind(kind), "stale").Inc()
	} else {
		metrics.CacheReads.WithLabelValues(metricKind(kind), "hit").Inc()
	}
	return entry, nil
}

// Put encodes payload as JSON and stores it with expiry now+ttl, replacing any
// previous entry for (subject, kind).
func (s *Store) Put(subject string, kind models.DataKind, payload any, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache ttl for %s must be positive, got %s", kind, ttl)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return s.PutRaw(subject, kind, string(data), ttl)
}

// PutRaw stores an already encoded payload.
func (s *Store) PutRaw(subject string, kind models.DataKind, payload string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache ttl for %s must be positive, got %s", kind, ttl)
	}
	now := s.now()
	entry := &models.CacheEntry{
		SubjectID: subject,
		DataKind:  kind,
		Payload:   payload,
		FetchedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.db.UpsertCacheEntry(entry); err != nil {
		return fmt.Errorf("put cache entry %s/%s: %w", subject, kind, err)
	}
	metrics.CacheWrites.WithLabelValues(metricKind(kind)).Inc()
	return nil
}

// SweepExpired deletes every entry that expired before now and logs each one.
// This is the only way entries are ever removed.
func (s *Store) SweepExpired(now time.Time) (int64, error) {
	expired, err := s.db.ListExpiredCacheEntries(now)
	if err != nil {
		return 0, fmt.Errorf("list expired cache entries: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}
	for _, e := range expired {
		log.Debug().
			Str("subject", e.SubjectID).
			Str("kind", string(e.DataKind)).
			Time("expires_at", e.ExpiresAt).
			Msg("sweeping expired cache entry")
	}

	removed, err := s.db.DeleteExpiredCacheEntries(now)
	if err != nil {
		return 0, fmt.Errorf("delete expired cache entries: %w", err)
	}
	metrics.CacheSwept.Add(float64(removed))
	log.Info().Int64("removed", removed).Msg("cache sweep complete")
	return removed, nil
}

// metricKind folds per-day snapshot kinds into one label value.
func metricKind(kind models.DataKind) string {
	if kind.IsDailySnapshot() {
		return "snapshot"
	}
	return string(kind)
}
