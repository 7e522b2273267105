// Package engine runs the sync cycle: fetch remote counters, cache them, diff
// against the ledger baseline, append the reward to the ledger and fold it
// into the aggregate, then award badges and advance challenges.
//
// The ledger is written ahead of the aggregate. An entry whose effects never
// reached the aggregate is replayed on the next cycle, never re-diffed.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/asteroid-belt/gitquest/internal/cache"
	"github.com/asteroid-belt/gitquest/internal/db"
	"github.com/asteroid-belt/gitquest/internal/gamify"
	"github.com/asteroid-belt/gitquest/internal/github"
	"github.com/asteroid-belt/gitquest/internal/log"
	"github.com/asteroid-belt/gitquest/internal/metrics"
	"github.com/asteroid-belt/gitquest/internal/models"
	"github.com/asteroid-belt/gitquest/internal/stats"
	"github.com/asteroid-belt/gitquest/internal/telemetry"
)

// Fetcher reads a subject's absolute counters from the remote API.
type Fetcher interface {
	Fetch(ctx context.Context, subject string) (*models.StatsSnapshot, *models.RateLimitInfo, error)
}

// etagSource is implemented by fetchers that expose the last listing ETag.
type etagSource interface {
	ETag() string
}

// profileSource is implemented by fetchers that can read the public profile.
type profileSource interface {
	Profile(ctx context.Context, subject string) (*github.Profile, error)
}

// SyncMode decides what a sync does when one is already running for the subject.
type SyncMode string

const (
	SyncModeWait   SyncMode = "wait"
	SyncModeReject SyncMode = "reject"
)

// Config configures an Engine.
type Config struct {
	Mode         SyncMode
	FetchTimeout time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Location decides calendar days for streaks and challenge windows.
	Location         *time.Location
	ChallengeMetrics []models.Metric
	CachePolicy      cache.Policy

	Telemetry telemetry.Client
	Now       func() time.Time
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Mode:         SyncModeWait,
		FetchTimeout: 30 * time.Second,
		MaxRetries:   2,
		RetryBackoff: 2 * time.Second,
		Location:     time.Local,
		ChallengeMetrics: []models.Metric{
			models.MetricCommits,
			models.MetricPRsCreated,
			models.MetricReviews,
		},
		CachePolicy: cache.DefaultPolicy(),
	}
}

// Engine orchestrates sync cycles and serves read models.
type Engine struct {
	db        *db.DB
	fetcher   Fetcher
	cache     *cache.Store
	cfg       Config
	telemetry telemetry.Client
	now       func() time.Time

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	revalidator *Revalidator

	// afterAppend runs between the ledger append and the aggregate update.
	afterAppend func() error
}

// New creates an engine. Zero values in cfg fall back to DefaultConfig.
func New(database *db.DB, fetcher Fetcher, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = def.MaxRetries
	case cfg.MaxRetries < 0:
		// negative disables retries
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if len(cfg.ChallengeMetrics) == 0 {
		cfg.ChallengeMetrics = def.ChallengeMetrics
	}
	if cfg.CachePolicy == (cache.Policy{}) {
		cfg.CachePolicy = def.CachePolicy
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = telemetry.Noop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	e := &Engine{
		db:        database,
		fetcher:   fetcher,
		cache:     cache.NewStore(database, cache.WithClock(cfg.Now)),
		cfg:       cfg,
		telemetry: cfg.Telemetry,
		now:       cfg.Now,
		locks:     make(map[string]chan struct{}),
	}
	e.revalidator = NewRevalidator(e)
	return e
}

// Cache returns the engine's cache store.
func (e *Engine) Cache() *cache.Store {
	return e.cache
}

// Close stops background revalidation and waits for it to finish.
func (e *Engine) Close() {
	e.revalidator.Close()
}

// WaitRevalidation waits up to timeout for background refreshes to finish.
// Reports whether they did.
func (e *Engine) WaitRevalidation(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		e.revalidator.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// acquire takes the per-subject write lock.
func (e *Engine) acquire(ctx context.Context, subject string, mode SyncMode) (func(), error) {
	e.locksMu.Lock()
	l, ok := e.locks[subject]
	if !ok {
		l = make(chan struct{}, 1)
		e.locks[subject] = l
	}
	e.locksMu.Unlock()

	release := func() { <-l }
	if mode == SyncModeReject {
		select {
		case l <- struct{}{}:
			return release, nil
		default:
			metrics.SyncRejected.Inc()
			return nil, ErrSyncInProgress
		}
	}
	select {
	case l <- struct{}{}:
		return release, nil
	case <-ctx.Done():
		return nil, &SyncError{Kind: KindNetworkUnavailable, Op: "acquire lock", Err: ctx.Err()}
	}
}

// SyncResult is the outcome of one sync cycle.
type SyncResult struct {
	Subject     string             `json:"subject"`
	State       models.UserStats   `json:"state"`
	XPGained    int64              `json:"xp_gained"`
	OldLevel    int                `json:"old_level"`
	NewLevel    int                `json:"new_level"`
	LevelUp     bool               `json:"level_up"`
	Breakdown   models.XPBreakdown `json:"breakdown"`
	StreakBonus int64              `json:"streak_bonus"`
	NewBadges   []gamify.Badge     `json:"new_badges"`

	CompletedChallenges []models.Challenge `json:"completed_challenges,omitempty"`

	// StatsDiffVsPreviousDay compares the snapshot with the last one cached
	// for the previous calendar day. Nil when none is cached.
	StatsDiffVsPreviousDay *models.StatsDelta `json:"stats_diff_vs_previous_day,omitempty"`

	Snapshot  *models.StatsSnapshot `json:"snapshot,omitempty"`
	RateLimit *models.RateLimitInfo `json:"rate_limit,omitempty"`

	// FromCache is set when the cycle failed and Snapshot is the cached one.
	FromCache bool `json:"from_cache"`
	// Baseline is set on the first sync of a subject, which awards nothing.
	Baseline bool `json:"baseline"`
	// Replayed counts ledger entries recovered before this cycle ran.
	Replayed int `json:"replayed"`

	Err      *ResultError  `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Sync runs one sync cycle for subject using the configured mode.
func (e *Engine) Sync(ctx context.Context, subject string) (*SyncResult, error) {
	return e.sync(ctx, subject, e.cfg.Mode)
}

// TrySync runs a sync cycle unless one is already running for subject,
// in which case it returns ErrSyncInProgress.
func (e *Engine) TrySync(ctx context.Context, subject string) (*SyncResult, error) {
	return e.sync(ctx, subject, SyncModeReject)
}

func (e *Engine) sync(ctx context.Context, subject string, mode SyncMode) (*SyncResult, error) {
	if subject == "" {
		return nil, errors.New("subject is required")
	}
	start := time.Now()

	release, err := e.acquire(ctx, subject, mode)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err := e.runCycle(ctx, subject)
	res.Duration = time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
		res.Err = resultError(err)
		e.telemetry.TrackSyncFailed(outcome, res.FromCache)

		ev := log.Warn()
		if KindOf(err) == KindInvariant {
			ev = log.Error()
		}
		ev.Err(err).Str("subject", subject).Str("kind", outcome).Bool("from_cache", res.FromCache).Msg("sync failed")
	} else {
		e.telemetry.TrackSyncCompleted(res.XPGained, res.LevelUp, len(res.NewBadges), res.Duration.Milliseconds())
		if res.LevelUp {
			e.telemetry.TrackLevelUp(res.NewLevel)
		}
		log.Info().
			Str("subject", subject).
			Int64("xp", res.XPGained).
			Int("level", res.NewLevel).
			Int("badges", len(res.NewBadges)).
			Bool("baseline", res.Baseline).
			Dur("duration", res.Duration).
			Msg("sync complete")
	}
	metrics.RecordSync(outcome, res.Duration)
	return res, err
}

// runCycle is the body of a sync; the subject lock is held.
// It always returns a non-nil result.
func (e *Engine) runCycle(ctx context.Context, subject string) (*SyncResult, error) {
	res := &SyncResult{Subject: subject}

	// 0. replay anything a previous cycle left behind
	pre, err := e.reconcileTx(subject)
	if err != nil {
		return e.fallback(res, err), err
	}
	res.Replayed = pre.Replayed
	e.noteReplayed(subject, pre.Replayed)
	res.NewBadges = append(res.NewBadges, pre.NewBadges...)
	res.CompletedChallenges = append(res.CompletedChallenges, pre.Completed...)
	before := pre.State

	if err := e.gate(subject); err != nil {
		return e.fallback(res, err), err
	}

	snap, rates, err := e.fetchWithRetry(ctx, subject)
	if err != nil {
		serr := fromFetch(err)
		if ctx.Err() == nil {
			e.recordFailure(subject, serr, rates)
		}
		return e.fallback(res, serr), serr
	}
	res.RateLimit = rates
	if err := stats.Validate(*snap); err != nil {
		serr := invariant("validate snapshot", err)
		return e.fallback(res, serr), serr
	}

	// Nothing below observes ctx: once the fetch returned, the cycle runs to
	// completion regardless of the caller.
	now := e.now()
	today := gamify.LocalDate(now, e.cfg.Location)

	// 1. snapshot to cache
	res.StatsDiffVsPreviousDay = e.previousDayDiff(subject, *snap, now)
	if err := e.cacheSnapshot(subject, snap, rates, today); err != nil {
		serr := persistence("cache snapshot", err)
		return e.fallback(res, serr), serr
	}
	res.Snapshot = snap

	// 2. ledger append
	locked, entry, baseline, err := e.appendTx(subject, snap, today, now)
	if err != nil {
		return e.fallback(res, err), err
	}
	res.Baseline = baseline
	res.Replayed += locked.Replayed
	e.noteReplayed(subject, locked.Replayed)
	res.NewBadges = append(res.NewBadges, locked.NewBadges...)
	res.CompletedChallenges = append(res.CompletedChallenges, locked.Completed...)
	if entry != nil && e.afterAppend != nil {
		if err := e.afterAppend(); err != nil {
			serr := persistence("apply ledger entry", err)
			return e.fallback(res, serr), serr
		}
	}

	// 3 + 4. aggregate, challenges, badges
	post, err := e.reconcileTx(subject)
	if err != nil {
		return e.fallback(res, err), err
	}
	// challenges completed before the append were paid into the state the
	// reward was applied to, so their XP is added back here
	var earlyBonus int64
	for _, ch := range res.CompletedChallenges {
		earlyBonus += ch.RewardXP
	}
	res.NewBadges = append(res.NewBadges, post.NewBadges...)
	res.CompletedChallenges = append(res.CompletedChallenges, post.Completed...)

	res.State = post.State
	res.XPGained = post.State.TotalXP - locked.State.TotalXP + earlyBonus
	res.OldLevel = before.CurrentLevel
	res.NewLevel = post.State.CurrentLevel
	res.LevelUp = res.NewLevel > res.OldLevel
	if entry != nil {
		if b, err := entry.GetBreakdown(); err == nil {
			res.Breakdown = b.XP
			res.StreakBonus = b.XP.StreakBonus
		}
	}
	for _, ch := range res.CompletedChallenges {
		res.Breakdown.ChallengeBonus += ch.RewardXP
	}

	if err := e.checkConservation(subject); err != nil {
		return res, err
	}
	e.recordSuccess(subject, rates, entry)
	return res, nil
}

// gate refuses to sync while credentials are known bad or a rate limit is
// known to be exhausted.
func (e *Engine) gate(subject string) error {
	state, err := e.db.GetAppState()
	if err != nil {
		return persistence("load app state", err)
	}
	if state.SyncDisabled() {
		return &SyncError{
			Kind: KindCredentialInvalid,
			Op:   "sync",
			Err:  fmt.Errorf("%w: %s", ErrSyncDisabled, state.CredentialError),
		}
	}

	meta, err := e.db.GetSyncMetadata(subject, models.SyncTypeActivity)
	if err != nil {
		return persistence("load sync metadata", err)
	}
	if meta == nil {
		return nil
	}
	now := e.now()
	retryAt := time.Time{}
	if meta.RetryAt != nil {
		retryAt = *meta.RetryAt
	}
	if rl, err := meta.GetRateLimit(); err == nil && rl != nil {
		if until := rl.ExhaustedUntil(); until.After(retryAt) {
			retryAt = until
		}
	}
	if retryAt.After(now) {
		return &SyncError{
			Kind:    KindRateLimited,
			Op:      "sync",
			RetryAt: retryAt,
			Err:     errors.New("rate limit exhausted"),
		}
	}
	return nil
}

// fetchWithRetry fetches with a bounded timeout per attempt and retries
// transient failures with exponential backoff.
func (e *Engine) fetchWithRetry(ctx context.Context, subject string) (*models.StatsSnapshot, *models.RateLimitInfo, error) {
	var lastErr error
	var lastRates *models.RateLimitInfo
	backoff := e.cfg.RetryBackoff

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Debug().
				Str("subject", subject).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Err(lastErr).
				Msg("retrying fetch")
			select {
			case <-ctx.Done():
				return nil, lastRates, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
		snap, rates, err := e.fetcher.Fetch(fetchCtx, subject)
		cancel()
		if rates != nil {
			lastRates = rates
		}
		if err == nil {
			return snap, lastRates, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}
	return nil, lastRates, lastErr
}

// previousDayDiff diffs a snapshot against the one cached for yesterday.
func (e *Engine) previousDayDiff(subject string, snap models.StatsSnapshot, now time.Time) *models.StatsDelta {
	yesterday := gamify.LocalDate(now.In(e.cfg.Location).AddDate(0, 0, -1), e.cfg.Location)
	prev, ok, err := cache.Read[models.StatsSnapshot](e.cache, subject, models.DailySnapshotKind(yesterday))
	if err != nil || !ok {
		return nil
	}
	d := stats.Diff(&prev.Data, snap)
	return &d
}

func (e *Engine) cacheSnapshot(subject string, snap *models.StatsSnapshot, rates *models.RateLimitInfo, today string) error {
	p := e.cfg.CachePolicy
	if err := e.cache.Put(subject, models.KindStats, snap, p.TTL(models.KindStats)); err != nil {
		return err
	}
	if err := e.cache.Put(subject, models.DailySnapshotKind(today), snap, p.TTL(models.DailySnapshotKind(today))); err != nil {
		return err
	}
	if rates != nil {
		if err := e.cache.Put(subject, models.KindRateLimit, rates, p.TTL(models.KindRateLimit)); err != nil {
			return err
		}
	}
	return nil
}

// appendTx appends the reward of snap in one transaction that holds the
// subject lock. Anything another process left pending is folded first, so
// the reward is computed against the current state and no two writers can
// diff against the same baseline.
func (e *Engine) appendTx(subject string, snap *models.StatsSnapshot, today string, now time.Time) (*reconcileResult, *models.XPHistory, bool, error) {
	var (
		rec      *reconcileResult
		entry    *models.XPHistory
		baseline bool
	)
	err := e.db.Transaction(func(tx *db.DB) error {
		if err := tx.LockSubject(subject); err != nil {
			return persistence("lock subject", err)
		}
		r, err := e.reconcile(tx, subject, now)
		if err != nil {
			return err
		}
		rec = r
		entry, baseline, err = appendSyncEntry(tx, subject, snap, r.State, today, now)
		return err
	})
	if err != nil {
		return nil, nil, false, txError("append ledger entry", err)
	}
	e.emitReconciled(subject, rec)

	if entry != nil {
		metrics.RecordXP(string(entry.ActionType), entry.XPAmount)
		log.Debug().
			Str("subject", subject).
			Uint("entry_id", entry.ID).
			Str("action", string(entry.ActionType)).
			Int64("xp", entry.XPAmount).
			Msg("ledger entry appended")
	}
	return rec, entry, baseline, nil
}

// appendSyncEntry writes the reward of a snapshot to the ledger. The first
// sync writes a zero-XP baseline; a sync with nothing new writes nothing and
// returns a nil entry.
func appendSyncEntry(tx *db.DB, subject string, snap *models.StatsSnapshot, state models.UserStats, today string, now time.Time) (*models.XPHistory, bool, error) {
	latest, err := tx.GetLatestSyncEntry(subject)
	if err != nil {
		return nil, false, persistence("load ledger baseline", err)
	}

	var previous *models.StatsSnapshot
	if latest != nil {
		b, err := latest.GetBreakdown()
		if err != nil {
			return nil, false, invariant("decode ledger baseline", err)
		}
		previous = b.Snapshot
	}

	entry := &models.XPHistory{SubjectID: subject, CreatedAt: now}
	var lb models.LedgerBreakdown

	switch {
	case previous == nil:
		entry.ActionType = models.ActionSyncBaseline
		lb = models.LedgerBreakdown{Snapshot: snap, Reason: "baseline"}
	default:
		delta := stats.Diff(previous, *snap)
		if err := stats.ValidateDelta(delta); err != nil {
			return nil, false, invariant("diff", err)
		}
		if delta.IsZero() {
			return nil, false, nil
		}
		reward, err := gamify.Apply(delta, state, gamify.RewardContext{ActivityDate: today})
		if err != nil {
			return nil, false, invariant("apply reward", err)
		}
		entry.ActionType = models.ActionSync
		entry.XPAmount = reward.XPGained
		lb = reward.Ledger
		lb.Snapshot = snap
	}

	if err := entry.SetBreakdown(lb); err != nil {
		return nil, false, invariant("encode breakdown", err)
	}
	if err := tx.AppendXP(entry); err != nil {
		return nil, false, persistence("append ledger entry", err)
	}
	return entry, previous == nil, nil
}

// checkConservation verifies that the aggregate holds exactly the entries up
// to its cursor. Entries another process appended since are pending, not
// missing.
func (e *Engine) checkConservation(subject string) error {
	report, err := e.VerifyLedger(subject)
	if err != nil {
		return err
	}
	if report.LedgerXP != report.AggregateXP+report.PendingXP {
		metrics.LedgerMismatches.Inc()
		return invariant("verify ledger", fmt.Errorf(
			"ledger sum %d != aggregate %d (%d pending)", report.LedgerXP, report.AggregateXP, report.Pending))
	}
	return nil
}

// fallback fills a failed result with the last known good state and the
// cached snapshot so callers can keep showing data flagged as stale.
func (e *Engine) fallback(res *SyncResult, err error) *SyncResult {
	if state, serr := e.db.GetUserStats(res.Subject); serr == nil {
		res.State = *state
		res.OldLevel = state.CurrentLevel
		res.NewLevel = state.CurrentLevel
	}
	if cached, ok, cerr := cache.Read[models.StatsSnapshot](e.cache, res.Subject, models.KindStats); cerr == nil && ok {
		snap := cached.Data
		res.Snapshot = &snap
		res.FromCache = true
	}
	if res.RateLimit == nil {
		if meta, merr := e.db.GetSyncMetadata(res.Subject, models.SyncTypeActivity); merr == nil && meta != nil {
			res.RateLimit, _ = meta.GetRateLimit()
		}
	}
	res.XPGained = 0
	res.LevelUp = false
	return res
}

func (e *Engine) recordSuccess(subject string, rates *models.RateLimitInfo, entry *models.XPHistory) {
	meta, err := e.db.GetSyncMetadata(subject, models.SyncTypeActivity)
	if err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to load sync metadata")
		return
	}
	if meta == nil {
		meta = &models.SyncMetadata{SubjectID: subject, SyncType: models.SyncTypeActivity}
	}
	now := e.now()
	meta.LastSyncAt = &now
	meta.LastError = ""
	meta.ErrorKind = ""
	meta.RetryAt = nil
	if entry != nil {
		meta.Cursor = strconv.FormatUint(uint64(entry.ID), 10)
	}
	if es, ok := e.fetcher.(etagSource); ok {
		meta.ETag = es.ETag()
	}
	if rates != nil {
		_ = meta.SetRateLimit(*rates)
	}
	if err := e.db.SaveSyncMetadata(meta); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to save sync metadata")
	}

	if app, err := e.db.GetAppState(); err == nil && app.CredentialStatus != models.CredentialValid {
		if err := e.db.SetCredentialStatus(models.CredentialValid, ""); err != nil {
			log.Warn().Err(err).Msg("failed to record credential status")
		}
	}
}

func (e *Engine) recordFailure(subject string, serr *SyncError, rates *models.RateLimitInfo) {
	meta, err := e.db.GetSyncMetadata(subject, models.SyncTypeActivity)
	if err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to load sync metadata")
		return
	}
	if meta == nil {
		meta = &models.SyncMetadata{SubjectID: subject, SyncType: models.SyncTypeActivity}
	}
	meta.LastError = serr.Err.Error()
	meta.ErrorKind = string(serr.Kind)
	meta.RetryAt = nil
	if serr.Kind == KindRateLimited && !serr.RetryAt.IsZero() {
		at := serr.RetryAt
		meta.RetryAt = &at
	}
	if rates != nil {
		_ = meta.SetRateLimit(*rates)
	}
	if err := e.db.SaveSyncMetadata(meta); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to save sync metadata")
	}

	if serr.Kind == KindCredentialInvalid {
		if err := e.db.SetCredentialStatus(models.CredentialInvalid, serr.Err.Error()); err != nil {
			log.Error().Err(err).Msg("failed to record invalid credentials")
		}
	}
}

// ResetCredentials re-enables sync after a credential failure.
func (e *Engine) ResetCredentials() error {
	if err := e.db.ResetCredentials(); err != nil {
		return persistence("reset credentials", err)
	}
	return nil
}
