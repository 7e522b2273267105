package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/asteroid-belt/gitquest/internal/db"
	"github.com/asteroid-belt/gitquest/internal/gamify"
	"github.com/asteroid-belt/gitquest/internal/log"
	"github.com/asteroid-belt/gitquest/internal/metrics"
	"github.com/asteroid-belt/gitquest/internal/models"
)

// reconcileResult is what one reconcile pass changed.
type reconcileResult struct {
	State     models.UserStats
	Replayed  int
	NewBadges []gamify.Badge
	Completed []models.Challenge
}

// reconcileTx runs reconcile in one transaction under the subject lock and
// emits its metrics once the transaction committed.
func (e *Engine) reconcileTx(subject string) (*reconcileResult, error) {
	var out *reconcileResult
	err := e.db.Transaction(func(tx *db.DB) error {
		if err := tx.LockSubject(subject); err != nil {
			return persistence("lock subject", err)
		}
		r, err := e.reconcile(tx, subject, e.now())
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, txError("reconcile", err)
	}
	e.emitReconciled(subject, out)
	return out, nil
}

// txError keeps the kind of a SyncError returned from a transaction and
// classifies anything else as a persistence failure.
func txError(op string, err error) error {
	var se *SyncError
	if errors.As(err, &se) {
		return se
	}
	return persistence(op, err)
}

func (e *Engine) emitReconciled(subject string, out *reconcileResult) {
	for _, b := range out.NewBadges {
		metrics.BadgesEarned.Inc()
		e.telemetry.TrackBadgeEarned(b.ID)
		log.Info().Str("subject", subject).Str("badge", b.ID).Msg("badge earned")
	}
	for _, ch := range out.Completed {
		metrics.ChallengesCompleted.WithLabelValues(string(ch.Type)).Inc()
		metrics.RecordXP(string(models.ActionChallengeCompleted), ch.RewardXP)
		e.telemetry.TrackChallengeCompleted(string(ch.Type), string(ch.Metric))
		log.Info().
			Str("subject", subject).
			Str("challenge", ch.ID).
			Str("metric", string(ch.Metric)).
			Int64("xp", ch.RewardXP).
			Msg("challenge completed")
	}
}

// reconcile brings everything derived from the ledger up to date:
//
//  1. folds every entry past the aggregate cursor into the aggregate,
//  2. advances challenges with every sync delta past the challenge cursor,
//     paying completions through the ledger,
//  3. awards badges whose condition now holds.
//
// Each step is driven by a cursor, so running it twice changes nothing.
func (e *Engine) reconcile(tx *db.DB, subject string, now time.Time) (*reconcileResult, error) {
	state, err := tx.GetUserStats(subject)
	if err != nil {
		return nil, persistence("load aggregate", err)
	}
	res := &reconcileResult{}

	pending, err := tx.GetXPEntriesAfter(subject, state.AppliedEntryID)
	if err != nil {
		return nil, persistence("load pending entries", err)
	}
	next := *state
	for _, entry := range pending {
		if next, err = gamify.FoldEntry(next, entry); err != nil {
			return nil, invariant("replay ledger", err)
		}
		res.Replayed++
	}

	completed, err := e.advanceChallenges(tx, subject, now)
	if err != nil {
		return nil, err
	}
	for _, ch := range completed {
		entry, err := appendChallengeEntry(tx, ch, now)
		if err != nil {
			return nil, err
		}
		if next, err = gamify.FoldEntry(next, *entry); err != nil {
			return nil, invariant("apply challenge reward", err)
		}
	}
	res.Completed = completed

	if res.Replayed > 0 || len(completed) > 0 {
		if err := tx.SaveUserStats(&next); err != nil {
			return nil, persistence("save aggregate", err)
		}
	}
	res.State = next

	badges, err := awardBadges(tx, next, now)
	if err != nil {
		return nil, err
	}
	res.NewBadges = badges
	return res, nil
}

// awardBadges inserts every badge whose condition holds and that the subject
// has not earned yet. Conditions see the aggregate plus the auxiliary
// counters of the latest snapshot.
func awardBadges(tx *db.DB, state models.UserStats, now time.Time) ([]gamify.Badge, error) {
	bctx := gamify.BadgeContext{State: state}
	latest, err := tx.GetLatestSyncEntry(state.SubjectID)
	if err != nil {
		return nil, persistence("load latest snapshot", err)
	}
	if latest != nil {
		if b, err := latest.GetBreakdown(); err == nil && b.Snapshot != nil {
			bctx.Languages = b.Snapshot.Languages
			bctx.Stars = b.Snapshot.Stars
		}
	}

	earned, err := tx.EarnedBadgeSet(state.SubjectID)
	if err != nil {
		return nil, persistence("load badges", err)
	}
	var out []gamify.Badge
	for _, b := range gamify.NewlyEarned(bctx, earned) {
		inserted, err := tx.InsertBadge(state.SubjectID, b.ID, now)
		if err != nil {
			return nil, persistence("insert badge", err)
		}
		if inserted {
			out = append(out, b)
		}
	}
	return out, nil
}

// advanceChallenges makes sure the current windows exist, applies every sync
// delta past the challenge cursor and expires finished windows. It returns
// the challenges completed by this call.
func (e *Engine) advanceChallenges(tx *db.DB, subject string, now time.Time) ([]models.Challenge, error) {
	if _, err := e.ensureChallenges(tx, subject, now); err != nil {
		return nil, err
	}

	meta, err := tx.GetSyncMetadata(subject, models.SyncTypeChallengeProgress)
	if err != nil {
		return nil, persistence("load challenge cursor", err)
	}
	if meta == nil {
		meta = &models.SyncMetadata{SubjectID: subject, SyncType: models.SyncTypeChallengeProgress}
	}
	var cursor uint
	if meta.Cursor != "" {
		v, err := strconv.ParseUint(meta.Cursor, 10, 64)
		if err != nil {
			return nil, invariant("parse challenge cursor", err)
		}
		cursor = uint(v)
	}

	entries, err := tx.GetXPEntriesAfter(subject, cursor)
	if err != nil {
		return nil, persistence("load challenge entries", err)
	}

	var completed []models.Challenge
	if len(entries) > 0 {
		active, err := tx.GetActiveChallenges(subject)
		if err != nil {
			return nil, persistence("load active challenges", err)
		}
		for _, entry := range entries {
			if entry.ActionType != models.ActionSync {
				continue
			}
			b, err := entry.GetBreakdown()
			if err != nil {
				return nil, invariant("decode ledger entry", err)
			}
			for i := range active {
				ch := &active[i]
				before := ch.CurrentValue
				done := gamify.Advance(ch, b.Delta, entry.CreatedAt)
				if ch.CurrentValue == before {
					continue
				}
				ch.UpdatedAt = now
				if err := tx.SaveChallenge(ch); err != nil {
					return nil, persistence("save challenge", err)
				}
				if done {
					completed = append(completed, *ch)
				}
			}
		}

		meta.Cursor = strconv.FormatUint(uint64(entries[len(entries)-1].ID), 10)
		meta.LastSyncAt = &now
		if err := tx.SaveSyncMetadata(meta); err != nil {
			return nil, persistence("save challenge cursor", err)
		}
	}

	if n, err := tx.ExpireChallenges(subject, now); err != nil {
		return nil, persistence("expire challenges", err)
	} else if n > 0 {
		log.Debug().Str("subject", subject).Int64("expired", n).Msg("challenges expired")
	}
	return completed, nil
}

// ensureChallenges creates the challenges of the windows containing now
// that do not exist yet. Returns the number created.
func (e *Engine) ensureChallenges(tx *db.DB, subject string, now time.Time, types ...models.ChallengeType) (int, error) {
	created := 0
	for _, w := range gamify.Windows(now, e.cfg.Location) {
		if len(types) > 0 && !containsType(types, w.Type) {
			continue
		}
		history := make(map[models.Metric][]int64, len(e.cfg.ChallengeMetrics))
		for _, m := range e.cfg.ChallengeMetrics {
			values, err := tx.RecentChallengeValues(subject, w.Type, m, w.Start, gamify.HistoryWindows)
			if err != nil {
				return created, persistence("load challenge history", err)
			}
			history[m] = values
		}
		for _, ch := range gamify.Generate(subject, w, e.cfg.ChallengeMetrics, history, newChallengeID) {
			ch := ch
			ok, err := tx.CreateChallenge(&ch)
			if err != nil {
				return created, persistence("create challenge", err)
			}
			if ok {
				created++
			}
		}
	}
	return created, nil
}

func containsType(types []models.ChallengeType, t models.ChallengeType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func appendChallengeEntry(tx *db.DB, ch models.Challenge, now time.Time) (*models.XPHistory, error) {
	entry := &models.XPHistory{
		SubjectID:  ch.SubjectID,
		ActionType: models.ActionChallengeCompleted,
		XPAmount:   ch.RewardXP,
		CreatedAt:  now,
	}
	err := entry.SetBreakdown(models.LedgerBreakdown{
		XP:          models.XPBreakdown{ChallengeBonus: ch.RewardXP},
		ChallengeID: ch.ID,
		Reason:      fmt.Sprintf("%s %s challenge", ch.Type, ch.Metric),
	})
	if err != nil {
		return nil, invariant("encode challenge entry", err)
	}
	if err := tx.AppendXP(entry); err != nil {
		return nil, persistence("append challenge entry", err)
	}
	return entry, nil
}

// Recover replays ledger entries that never reached the aggregate and
// challenge progress that was never applied. It returns the number of
// entries replayed.
func (e *Engine) Recover(ctx context.Context, subject string) (int, error) {
	release, err := e.acquire(ctx, subject, SyncModeWait)
	if err != nil {
		return 0, err
	}
	defer release()

	res, err := e.reconcileTx(subject)
	if err != nil {
		return 0, err
	}
	e.noteReplayed(subject, res.Replayed)
	if err := e.checkConservation(subject); err != nil {
		return res.Replayed, err
	}
	return res.Replayed, nil
}

func (e *Engine) noteReplayed(subject string, n int) {
	if n == 0 {
		return
	}
	metrics.LedgerReplayed.Add(float64(n))
	e.telemetry.TrackLedgerRecovered(n)
	log.Warn().Str("subject", subject).Int("entries", n).Msg("replayed ledger entries")
}

// GrantXP appends a manual grant to the ledger and applies it.
func (e *Engine) GrantXP(ctx context.Context, subject string, amount int64, reason string) (*SyncResult, error) {
	if subject == "" {
		return nil, errors.New("subject is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("grant amount must be positive, got %d", amount)
	}
	release, err := e.acquire(ctx, subject, SyncModeWait)
	if err != nil {
		return nil, err
	}
	defer release()

	pre, err := e.reconcileTx(subject)
	if err != nil {
		return nil, err
	}
	e.noteReplayed(subject, pre.Replayed)

	entry := &models.XPHistory{
		SubjectID:  subject,
		ActionType: models.ActionManualGrant,
		XPAmount:   amount,
		CreatedAt:  e.now(),
	}
	if err := entry.SetBreakdown(models.LedgerBreakdown{
		XP:     models.XPBreakdown{Manual: amount},
		Reason: reason,
	}); err != nil {
		return nil, invariant("encode grant", err)
	}
	if err := e.db.AppendXP(entry); err != nil {
		return nil, persistence("append grant", err)
	}
	metrics.RecordXP(string(models.ActionManualGrant), amount)

	post, err := e.reconcileTx(subject)
	if err != nil {
		return nil, err
	}
	if err := e.checkConservation(subject); err != nil {
		return nil, err
	}
	e.telemetry.TrackXPGranted(amount)

	res := &SyncResult{
		Subject:   subject,
		State:     post.State,
		XPGained:  post.State.TotalXP - pre.State.TotalXP,
		OldLevel:  pre.State.CurrentLevel,
		NewLevel:  post.State.CurrentLevel,
		Breakdown: models.XPBreakdown{Manual: amount},
		NewBadges: append(pre.NewBadges, post.NewBadges...),
		Replayed:  pre.Replayed,
	}
	res.LevelUp = res.NewLevel > res.OldLevel
	log.Info().Str("subject", subject).Int64("xp", amount).Str("reason", reason).Msg("xp granted")
	return res, nil
}

// LedgerReport compares the ledger with the aggregate.
type LedgerReport struct {
	Subject     string `json:"subject"`
	Entries     int64  `json:"entries"`
	LedgerXP    int64  `json:"ledger_xp"`
	AggregateXP int64  `json:"aggregate_xp"`
	// Pending counts entries past the aggregate cursor; PendingXP is their sum.
	Pending    int   `json:"pending"`
	PendingXP  int64 `json:"pending_xp"`
	Consistent bool  `json:"consistent"`
}

// VerifyLedger checks that the aggregate's total XP equals the sum of the
// ledger. Entries not yet replayed are reported as pending. The reads share
// one transaction under the subject lock so they see a single ledger state.
func (e *Engine) VerifyLedger(subject string) (*LedgerReport, error) {
	var r *LedgerReport
	err := e.db.Transaction(func(tx *db.DB) error {
		if err := tx.LockSubject(subject); err != nil {
			return persistence("lock subject", err)
		}
		state, err := tx.GetUserStats(subject)
		if err != nil {
			return persistence("load aggregate", err)
		}
		sum, err := tx.SumXP(subject)
		if err != nil {
			return persistence("sum ledger", err)
		}
		count, err := tx.CountXPEntries(subject)
		if err != nil {
			return persistence("count ledger", err)
		}
		pending, err := tx.GetXPEntriesAfter(subject, state.AppliedEntryID)
		if err != nil {
			return persistence("load pending entries", err)
		}

		r = &LedgerReport{
			Subject:     subject,
			Entries:     count,
			LedgerXP:    sum,
			AggregateXP: state.TotalXP,
			Pending:     len(pending),
		}
		for _, p := range pending {
			r.PendingXP += p.XPAmount
		}
		return nil
	})
	if err != nil {
		return nil, txError("verify ledger", err)
	}
	r.Consistent = r.Pending == 0 && r.LedgerXP == r.AggregateXP
	return r, nil
}
