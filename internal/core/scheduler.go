package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule is used when NewSessionSweeper gets an empty spec.
const DefaultSweepSchedule = "@every 5m"

// SessionSweeper evicts idle sessions on a cron schedule.
type SessionSweeper struct {
	cron     *cron.Cron
	svc      *Service
	logger   *slog.Logger
	schedule string
}

// NewSessionSweeper registers svc.SweepIdle under the standard cron spec
// schedule. The sweeper does nothing until Start is called.
func NewSessionSweeper(svc *Service, schedule string, logger *slog.Logger) (*SessionSweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	s := &SessionSweeper{
		cron:     cron.New(),
		svc:      svc,
		logger:   logger,
		schedule: schedule,
	}
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *SessionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if n := s.svc.SweepIdle(ctx); n > 0 {
		s.logger.Info("idle sessions evicted", "count", n, "remaining", s.svc.Status().Sessions)
	}
}

// Start runs the schedule in the background.
func (s *SessionSweeper) Start() {
	s.cron.Start()
	s.logger.Info("session sweeper started", "schedule", s.schedule, "ttl", s.svc.opts.SessionTTL)
}

// Stop halts the schedule and waits for a running sweep to finish or ctx
// to end.
func (s *SessionSweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.logger.Info("session sweeper stopped")
}
