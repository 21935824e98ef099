// Package jobs runs the recurring maintenance work: daily free-spin
// resets and stale-session expiry.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"quizcash/internal/config"
	"quizcash/internal/store"
)

const staleSessionCutoff = 24 * time.Hour

type Scheduler struct {
	cron  *cron.Cron
	store *store.Store
	cfg   config.GameConfig
}

func NewScheduler(st *store.Store, cfg config.GameConfig) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(time.UTC)),
		store: st,
		cfg:   cfg,
	}
}

// Start registers the jobs and starts the cron loop. Free spins reset
// at midnight UTC; stale waiting sessions are swept hourly.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 * * *", s.resetFreeSpins); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", s.expireStaleSessions); err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Msg("job scheduler started")
	return nil
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("job scheduler stopped")
}

func (s *Scheduler) resetFreeSpins() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := s.store.ResetDailyFreeSpins(ctx, s.cfg.FreeSpinsDaily)
	if err != nil {
		log.Error().Err(err).Msg("daily free spin reset failed")
		return
	}
	log.Info().Int64("accounts", n).Msg("daily free spins reset")
}

func (s *Scheduler) expireStaleSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := s.store.ExpireStaleSessions(ctx, staleSessionCutoff)
	if err != nil {
		log.Error().Err(err).Msg("stale session sweep failed")
		return
	}
	if n > 0 {
		log.Info().Int64("sessions", n).Msg("stale sessions expired")
	}
}
