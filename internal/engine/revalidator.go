package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/asteroid-belt/gitquest/internal/log"
	"github.com/asteroid-belt/gitquest/internal/metrics"
	"github.com/asteroid-belt/gitquest/internal/models"
)

// Revalidator refreshes stale cache entries in the background. At most one
// refresh runs per subject and data kind; a refresh never waits behind a
// running sync.
type Revalidator struct {
	engine *Engine

	mu      sync.Mutex
	running map[string]bool
	closed  bool

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewRevalidator creates a revalidator for e.
func NewRevalidator(e *Engine) *Revalidator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Revalidator{
		engine:     e,
		running:    make(map[string]bool),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Trigger starts a background sync of subject unless one is already running
// or the revalidator is closed. Returns immediately; reports whether a
// refresh was started.
func (r *Revalidator) Trigger(subject string) bool {
	return r.start(subject, func() { r.sync(subject) })
}

// TriggerProfile starts a background refresh of the cached remote profile of
// subject, with the same guarantees as Trigger.
func (r *Revalidator) TriggerProfile(subject string) bool {
	return r.start(profileKey(subject), func() { r.profile(subject) })
}

func profileKey(subject string) string {
	return string(models.KindProfile) + ":" + subject
}

func (r *Revalidator) start(key string, fn func()) bool {
	r.mu.Lock()
	if r.closed || r.running[key] {
		r.mu.Unlock()
		return false
	}
	r.running[key] = true
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			delete(r.running, key)
			r.mu.Unlock()
			r.wg.Done()
		}()
		fn()
	}()
	return true
}

// IsRunning reports whether a refresh of subject is in flight.
func (r *Revalidator) IsRunning(subject string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running[subject]
}

// Wait blocks until every in-flight refresh finished.
func (r *Revalidator) Wait() {
	r.wg.Wait()
}

// Close cancels in-flight fetches and waits for the refreshes to return.
// Triggers after Close are ignored.
func (r *Revalidator) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.cancelFunc()
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Revalidator) sync(subject string) {
	_, err := r.engine.TrySync(r.ctx, subject)
	switch {
	case err == nil:
		metrics.Revalidations.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrSyncInProgress):
		metrics.Revalidations.WithLabelValues("skipped").Inc()
	default:
		metrics.Revalidations.WithLabelValues("error").Inc()
		log.Debug().Err(err).Str("subject", subject).Msg("background revalidation failed")
	}
}

func (r *Revalidator) profile(subject string) {
	if err := r.engine.refreshProfile(r.ctx, subject); err != nil {
		metrics.Revalidations.WithLabelValues("error").Inc()
		log.Debug().Err(err).Str("subject", subject).Msg("background profile refresh failed")
		return
	}
	metrics.Revalidations.WithLabelValues("ok").Inc()
}
