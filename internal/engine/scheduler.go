package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/asteroid-belt/gitquest/internal/log"
	"github.com/asteroid-belt/gitquest/internal/models"
)

// SchedulerConfig configures the background jobs of an Engine.
type SchedulerConfig struct {
	Subjects []string
	// Background enables the periodic sync job.
	Background   bool
	Interval     time.Duration
	SyncOnLaunch bool
	// SweepInterval is how often expired cache entries are removed.
	SweepInterval time.Duration
}

// Scheduler runs periodic syncs, challenge generation at window boundaries
// and cache sweeps.
type Scheduler struct {
	engine *Engine
	cfg    SchedulerConfig
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	// launch tracks the sync started by Start, which cron does not know about.
	launch sync.WaitGroup
}

// NewScheduler registers the jobs described by cfg. Jobs do not overlap:
// a run still in progress skips the next tick.
func NewScheduler(e *Engine, cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	l := cronLogger{}
	c := cron.New(
		cron.WithLocation(e.cfg.Location),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{engine: e, cfg: cfg, cron: c, ctx: ctx, cancel: cancel}

	jobs := []struct {
		spec string
		name string
		fn   func()
	}{
		{"0 0 * * *", "daily challenges", func() { s.generate(models.ChallengeDaily) }},
		{"0 0 * * 1", "weekly challenges", func() { s.generate(models.ChallengeWeekly) }},
		{"@every " + cfg.SweepInterval.String(), "cache sweep", s.sweep},
	}
	if cfg.Background {
		if cfg.Interval <= 0 {
			cancel()
			return nil, fmt.Errorf("sync interval must be positive, got %s", cfg.Interval)
		}
		jobs = append(jobs, struct {
			spec string
			name string
			fn   func()
		}{"@every " + cfg.Interval.String(), "sync", s.syncAll})
	}

	for _, j := range jobs {
		if _, err := c.AddFunc(j.spec, j.fn); err != nil {
			cancel()
			return nil, fmt.Errorf("schedule %s: %w", j.name, err)
		}
		log.Debug().Str("job", j.name).Str("spec", j.spec).Msg("job scheduled")
	}
	return s, nil
}

// Start starts the cron loop and, when configured, a first sync.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().
		Int("jobs", len(s.cron.Entries())).
		Strs("subjects", s.cfg.Subjects).
		Bool("background_sync", s.cfg.Background).
		Msg("scheduler started")
	if s.cfg.SyncOnLaunch {
		s.launch.Add(1)
		go func() {
			defer s.launch.Done()
			s.syncAll()
		}()
	}
}

// Stop stops the cron loop, cancels running jobs and waits for them,
// including the launch sync.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.launch.Wait()
	log.Info().Msg("scheduler stopped")
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) syncAll() {
	for _, subject := range s.cfg.Subjects {
		if s.ctx.Err() != nil {
			return
		}
		// errors are logged by the engine
		_, _ = s.engine.TrySync(s.ctx, subject)
	}
}

func (s *Scheduler) generate(t models.ChallengeType) {
	for _, subject := range s.cfg.Subjects {
		n, err := s.engine.GenerateChallenges(s.ctx, subject, t)
		if err != nil {
			log.Warn().Err(err).Str("subject", subject).Str("type", string(t)).Msg("challenge generation failed")
			continue
		}
		log.Debug().Str("subject", subject).Str("type", string(t)).Int("created", n).Msg("challenges generated")
	}
}

func (s *Scheduler) sweep() {
	n, err := s.engine.SweepCache()
	if err != nil {
		log.Warn().Err(err).Msg("cache sweep failed")
		return
	}
	if n > 0 {
		log.Debug().Int64("removed", n).Msg("cache swept")
	}
}

// cronLogger adapts the package logger to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	withFields(log.Debug(), keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	withFields(log.Error().Err(err), keysAndValues).Msg("cron: " + msg)
}

func withFields(ev *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		ev = ev.Interface(fmt.Sprint(kv[i]), kv[i+1])
	}
	return ev
}
