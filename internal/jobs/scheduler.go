package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"photobooth/agent/internal/syncer"
)

// Scheduler triggers periodic sync reconciliation. Manual runs through the
// HTTP surface and scheduled runs share the reconciler's own serialization.
type Scheduler struct {
	cron       *cron.Cron
	reconciler *syncer.Reconciler
	schedule   string
	log        zerolog.Logger
}

func NewScheduler(reconciler *syncer.Reconciler, schedule string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		reconciler: reconciler,
		schedule:   schedule,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if s.schedule == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runSync); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits briefly for an in-flight run.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) runSync() {
	summary, err := s.reconciler.Run(context.Background())
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled sync run failed")
		return
	}
	if summary.SessionsSynced+summary.AssetsSynced+summary.FinalsSynced+summary.Failures > 0 {
		s.log.Info().
			Int("sessions", summary.SessionsSynced).
			Int("assets", summary.AssetsSynced).
			Int("finals", summary.FinalsSynced).
			Int("failures", summary.Failures).
			Msg("scheduled sync run finished")
	}
}
