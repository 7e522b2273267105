package cache

import (
	"time"

	"github.com/asteroid-belt/gitquest/internal/models"
)

// Default TTLs per data kind.
const (
	DefaultStatsTTL     = 30 * time.Minute
	DefaultProfileTTL   = 24 * time.Hour
	DefaultRateLimitTTL = 30 * time.Minute
	DefaultSnapshotTTL  = 72 * time.Hour
)

// Policy maps data kinds to TTLs.
type Policy struct {
	Stats     time.Duration
	Profile   time.Duration
	RateLimit time.Duration
	Snapshot  time.Duration
}

// DefaultPolicy returns the built-in TTLs.
func DefaultPolicy() Policy {
	return Policy{
		Stats:     DefaultStatsTTL,
		Profile:   DefaultProfileTTL,
		RateLimit: DefaultRateLimitTTL,
		Snapshot:  DefaultSnapshotTTL,
	}
}

// TTL returns the TTL for a kind, falling back to the stats TTL for unknown kinds.
// Non-positive configured values fall back to the defaults.
func (p Policy) TTL(kind models.DataKind) time.Duration {
	d := DefaultPolicy()
	pick := func(v, def time.Duration) time.Duration {
		if v <= 0 {
			return def
		}
		return v
	}
	switch {
	case kind == models.KindProfile:
		return pick(p.Profile, d.Profile)
	case kind == models.KindRateLimit:
		return pick(p.RateLimit, d.RateLimit)
	case kind.IsDailySnapshot():
		return pick(p.Snapshot, d.Snapshot)
	default:
		return pick(p.Stats, d.Stats)
	}
}
