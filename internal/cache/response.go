package cache

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// CachedResponse wraps a value that may have been served from cache.
type CachedResponse[T any] struct {
	Data      T         `json:"data"`
	FromCache bool      `json:"from_cache"`
	Stale     bool      `json:"stale"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
	// LastError is the message of the last failed refresh, if any.
	LastError string `json:"last_error,omitempty"`
}

// Fresh wraps a value that was just fetched.
func Fresh[T any](data T, fetchedAt time.Time, ttl time.Duration) CachedResponse[T] {
	return CachedResponse[T]{
		Data:      data,
		CachedAt:  fetchedAt,
		ExpiresAt: fetchedAt.Add(ttl),
	}
}

// Decode unmarshals an entry payload into a CachedResponse. Stale is set when
// the entry expired before now; the payload is returned regardless.
func Decode[T any](entry *models.CacheEntry, now time.Time) (CachedResponse[T], error) {
	var out CachedResponse[T]
	if err := json.Unmarshal([]byte(entry.Payload), &out.Data); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", entry.DataKind, err)
	}
	out.FromCache = true
	out.Stale = entry.IsExpired(now)
	out.CachedAt = entry.FetchedAt
	out.ExpiresAt = entry.ExpiresAt
	return out, nil
}

// Read loads and decodes (subject, kind). ok is false when nothing is cached.
func Read[T any](s *Store, subject string, kind models.DataKind) (resp CachedResponse[T], ok bool, err error) {
	entry, err := s.Get(subject, kind)
	if err != nil || entry == nil {
		return resp, false, err
	}
	resp, err = Decode[T](entry, s.now())
	if err != nil {
		return resp, false, err
	}
	return resp, true, nil
}
