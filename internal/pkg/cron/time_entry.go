package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/config"
)

// StaleSessionFlagger is the part of the time entry service the sweep needs.
type StaleSessionFlagger interface {
	FlagStaleSessions(ctx context.Context, maxOpen time.Duration) (int, error)
}

type TimeEntryJobs struct {
	flagger StaleSessionFlagger
	cfg     config.TimeClockConfig
}

func NewTimeEntryJobs(flagger StaleSessionFlagger, cfg config.TimeClockConfig) *TimeEntryJobs {
	return &TimeEntryJobs{
		flagger: flagger,
		cfg:     cfg,
	}
}

func (j *TimeEntryJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:       "flag_stale_time_entries",
		Interval:   j.cfg.SweepInterval,
		RunOnStart: true,
		Fn:         j.FlagStaleSessions,
	})
}

// FlagStaleSessions marks entries left open past the configured limit for
// manager review. They stay open.
func (j *TimeEntryJobs) FlagStaleSessions(ctx context.Context) error {
	flagged, err := j.flagger.FlagStaleSessions(ctx, j.cfg.StaleSessionAfter)
	if err != nil {
		return fmt.Errorf("failed to flag stale time entries: %w", err)
	}

	if flagged > 0 {
		slog.Info("Cron: Flagged stale time entries", "count", flagged, "max_open", j.cfg.StaleSessionAfter)
	}
	return nil
}
