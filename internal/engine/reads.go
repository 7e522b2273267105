package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/asteroid-belt/gitquest/internal/cache"
	"github.com/asteroid-belt/gitquest/internal/db"
	"github.com/asteroid-belt/gitquest/internal/gamify"
	"github.com/asteroid-belt/gitquest/internal/github"
	"github.com/asteroid-belt/gitquest/internal/models"
)

// Stats returns the cached snapshot of a subject without waiting for the
// network. A stale entry is served as is and a background refresh is
// started; only when nothing is cached does Stats sync synchronously.
func (e *Engine) Stats(ctx context.Context, subject string) (cache.CachedResponse[models.StatsSnapshot], error) {
	resp, ok, err := cache.Read[models.StatsSnapshot](e.cache, subject, models.KindStats)
	if err != nil {
		return resp, persistence("read stats cache", err)
	}
	if ok {
		if resp.Stale {
			e.revalidator.Trigger(subject)
			resp.LastError = e.lastError(subject)
		}
		return resp, nil
	}

	res, err := e.Sync(ctx, subject)
	if res == nil || res.Snapshot == nil {
		if err == nil {
			err = persistence("read stats", errMissingSnapshot)
		}
		return resp, err
	}
	if res.FromCache {
		// The sync failed but something got cached meanwhile.
		out, _, rerr := cache.Read[models.StatsSnapshot](e.cache, subject, models.KindStats)
		if rerr != nil {
			return resp, persistence("read stats cache", rerr)
		}
		if res.Err != nil {
			out.LastError = res.Err.Message
		}
		return out, nil
	}
	ttl := e.cfg.CachePolicy.TTL(models.KindStats)
	return cache.Fresh(*res.Snapshot, res.Snapshot.FetchedAt, ttl), nil
}

// Profile is the read model of a subject's progress.
type Profile struct {
	Subject         string                 `json:"subject"`
	Stats           models.UserStats       `json:"stats"`
	Level           gamify.LevelProgress   `json:"level"`
	EffectiveStreak int                    `json:"effective_streak"`
	NextMilestone   *gamify.Milestone      `json:"next_milestone,omitempty"`
	Badges          []models.EarnedBadge   `json:"badges"`
	BadgeProgress   []gamify.BadgeProgress `json:"badge_progress"`
	Challenges      []models.Challenge     `json:"challenges"`
	Snapshot        *models.StatsSnapshot  `json:"snapshot,omitempty"`
	Account         *github.Profile        `json:"account,omitempty"`
	RateLimit       *models.RateLimitInfo  `json:"rate_limit,omitempty"`
	LastSyncAt      *time.Time             `json:"last_sync_at,omitempty"`
	SyncDisabled    bool                   `json:"sync_disabled"`
}

// Profile assembles the profile read model from local state only. The
// response carries the freshness of the cached snapshot; a stale snapshot
// triggers a background refresh.
func (e *Engine) Profile(ctx context.Context, subject string) (cache.CachedResponse[Profile], error) {
	var out cache.CachedResponse[Profile]
	now := e.now()

	state, err := e.db.GetUserStats(subject)
	if err != nil {
		return out, persistence("load aggregate", err)
	}
	earned, err := e.db.GetEarnedBadges(subject)
	if err != nil {
		return out, persistence("load badges", err)
	}
	earnedSet := make(map[string]bool, len(earned))
	for _, b := range earned {
		earnedSet[b.BadgeID] = true
	}
	active, err := e.db.GetActiveChallenges(subject)
	if err != nil {
		return out, persistence("load challenges", err)
	}

	p := Profile{
		Subject:         subject,
		Stats:           *state,
		Level:           gamify.Progress(state.TotalXP),
		EffectiveStreak: gamify.EffectiveStreak(*state, gamify.LocalDate(now, e.cfg.Location)),
		NextMilestone:   gamify.NextMilestone(*state),
		Badges:          earned,
		Challenges:      active,
	}

	bctx := gamify.BadgeContext{State: *state}
	snapResp, ok, err := cache.Read[models.StatsSnapshot](e.cache, subject, models.KindStats)
	if err != nil {
		return out, persistence("read stats cache", err)
	}
	if ok {
		snap := snapResp.Data
		p.Snapshot = &snap
		bctx.Languages = snap.Languages
		bctx.Stars = snap.Stars
		out.FromCache = true
		out.Stale = snapResp.Stale
		out.CachedAt = snapResp.CachedAt
		out.ExpiresAt = snapResp.ExpiresAt
	}
	p.BadgeProgress = gamify.AllProgress(bctx, earnedSet)

	account, haveAccount, err := cache.Read[github.Profile](e.cache, subject, models.KindProfile)
	if err != nil {
		return out, persistence("read profile cache", err)
	}
	if haveAccount {
		a := account.Data
		p.Account = &a
	}

	meta, err := e.db.GetSyncMetadata(subject, models.SyncTypeActivity)
	if err != nil {
		return out, persistence("load sync metadata", err)
	}
	if meta != nil {
		p.LastSyncAt = meta.LastSyncAt
		p.RateLimit, _ = meta.GetRateLimit()
		out.LastError = meta.LastError
	}
	if app, err := e.db.GetAppState(); err == nil {
		p.SyncDisabled = app.SyncDisabled()
	}

	if out.Stale && !p.SyncDisabled {
		e.revalidator.Trigger(subject)
	}
	if _, ok := e.fetcher.(profileSource); ok && !p.SyncDisabled && (!haveAccount || account.Stale) {
		e.revalidator.TriggerProfile(subject)
	}
	out.Data = p
	e.telemetry.TrackProfileViewed("engine", out.Stale)
	return out, nil
}

// refreshProfile fetches the public profile of subject and caches it.
func (e *Engine) refreshProfile(ctx context.Context, subject string) error {
	ps, ok := e.fetcher.(profileSource)
	if !ok {
		return nil
	}
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	account, err := ps.Profile(fetchCtx, subject)
	if err != nil {
		return fromFetch(err)
	}
	if err := e.cache.Put(subject, models.KindProfile, account, e.cfg.CachePolicy.TTL(models.KindProfile)); err != nil {
		return persistence("cache profile", err)
	}
	return nil
}

// RateLimitStatus returns the last recorded rate limit of a subject's sync.
// Returns nil when none has been recorded.
func (e *Engine) RateLimitStatus(subject string) (*models.RateLimitInfo, error) {
	meta, err := e.db.GetSyncMetadata(subject, models.SyncTypeActivity)
	if err != nil {
		return nil, persistence("load sync metadata", err)
	}
	if meta == nil {
		return nil, nil
	}
	info, err := meta.GetRateLimit()
	if err != nil {
		return nil, invariant("decode rate limit", err)
	}
	return info, nil
}

// GenerateChallenges creates the missing challenges of the current windows,
// optionally restricted to some window types, and expires finished ones.
func (e *Engine) GenerateChallenges(ctx context.Context, subject string, types ...models.ChallengeType) (int, error) {
	release, err := e.acquire(ctx, subject, SyncModeWait)
	if err != nil {
		return 0, err
	}
	defer release()

	now := e.now()
	created := 0
	err = e.db.Transaction(func(tx *db.DB) error {
		if err := tx.LockSubject(subject); err != nil {
			return persistence("lock subject", err)
		}
		n, err := e.ensureChallenges(tx, subject, now, types...)
		if err != nil {
			return err
		}
		created = n
		if _, err := tx.ExpireChallenges(subject, now); err != nil {
			return persistence("expire challenges", err)
		}
		return nil
	})
	if err != nil {
		if KindOf(err) != "" {
			return 0, err
		}
		return 0, persistence("generate challenges", err)
	}
	return created, nil
}

// SweepCache removes expired cache entries.
func (e *Engine) SweepCache() (int64, error) {
	n, err := e.cache.SweepExpired(e.now())
	if err != nil {
		return 0, persistence("sweep cache", err)
	}
	return n, nil
}

func (e *Engine) lastError(subject string) string {
	meta, err := e.db.GetSyncMetadata(subject, models.SyncTypeActivity)
	if err != nil || meta == nil {
		return ""
	}
	return meta.LastError
}

func newChallengeID() string {
	return uuid.New().String()
}
