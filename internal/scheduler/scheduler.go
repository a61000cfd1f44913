// Package scheduler keeps active series materialized a fixed horizon ahead.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Refresher materializes every active series over [from, to].
type Refresher interface {
	Refresh(ctx context.Context, from, to time.Time) (int, error)
}

// Config controls cadence and window.
type Config struct {
	Spec    string        // cron spec, e.g. "*/15 * * * *" or "@every 15m"
	Horizon time.Duration // how far ahead of now to materialize
	Timeout time.Duration // per run; zero means no timeout
}

type Scheduler struct {
	refresher Refresher
	schedule  cron.Schedule
	cfg       Config
	log       zerolog.Logger
	now       func() time.Time
}

// New validates cfg.Spec and builds a scheduler.
func New(r Refresher, cfg Config, log zerolog.Logger) (*Scheduler, error) {
	if cfg.Horizon <= 0 {
		cfg.Horizon = 90 * 24 * time.Hour
	}
	sched, err := cron.ParseStandard(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", cfg.Spec, err)
	}
	return &Scheduler{
		refresher: r,
		schedule:  sched,
		cfg:       cfg,
		log:       log.With().Str("component", "scheduler").Logger(),
		now:       time.Now,
	}, nil
}

// Run materializes once immediately, then on every tick until ctx is
// canceled. Overlapping ticks are skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().
		Str("spec", s.cfg.Spec).
		Dur("horizon", s.cfg.Horizon).
		Msg("scheduler starting")

	s.runLogged(ctx)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(s.schedule, cron.FuncJob(func() { s.runLogged(ctx) }))
	c.Start()

	<-ctx.Done()
	s.log.Info().Msg("scheduler stopping")
	<-c.Stop().Done()
	return ctx.Err()
}

// RunOnce materializes [now, now+horizon] and returns the number of
// instances created.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	from := s.now()
	return s.refresher.Refresh(ctx, from, from.Add(s.cfg.Horizon))
}

func (s *Scheduler) runLogged(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	n, err := s.RunOnce(ctx)
	if err != nil {
		s.log.Error().Err(err).Int("created", n).Msg("horizon refresh failed")
		return
	}
	s.log.Info().
		Int("created", n).
		Dur("took", time.Since(started)).
		Msg("horizon refreshed")
}
