package cron

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFlagger struct {
	mu      sync.Mutex
	calls   []time.Duration
	flagged int
	err     error
}

func (f *stubFlagger) FlagStaleSessions(_ context.Context, maxOpen time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, maxOpen)
	return f.flagged, f.err
}

func (f *stubFlagger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestRunOnce_RunsEveryJob(t *testing.T) {
	s := NewScheduler(context.Background())

	var order []string
	s.AddJob(Job{Name: "a", Interval: time.Hour, Fn: func(context.Context) error {
		order = append(order, "a")
		return nil
	}})
	s.AddJob(Job{Name: "b", Interval: time.Hour, Fn: func(context.Context) error {
		order = append(order, "b")
		return errors.New("boom")
	}})
	s.AddJob(Job{Name: "c", Interval: time.Hour, Fn: func(context.Context) error {
		order = append(order, "c")
		return nil
	}})

	s.RunOnce(context.Background())
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestScheduler_RunOnStartAndStop(t *testing.T) {
	s := NewScheduler(context.Background())

	var runs atomic.Int32
	done := make(chan struct{}, 1)
	s.AddJob(Job{Name: "tick", Interval: time.Hour, RunOnStart: true, Fn: func(context.Context) error {
		runs.Add(1)
		done <- struct{}{}
		return nil
	}})

	s.Start()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()

	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_AddAfterStartIgnored(t *testing.T) {
	s := NewScheduler(context.Background())
	s.Start()
	defer s.Stop()

	s.AddJob(Job{Name: "late", Interval: time.Hour, Fn: func(context.Context) error { return nil }})
	assert.Empty(t, s.jobs)
}

func TestTimeEntryJobs_FlagStaleSessions(t *testing.T) {
	cfg := config.TimeClockConfig{StaleSessionAfter: 16 * time.Hour, SweepInterval: time.Hour}
	flagger := &stubFlagger{flagged: 2}
	jobs := NewTimeEntryJobs(flagger, cfg)

	require.NoError(t, jobs.FlagStaleSessions(context.Background()))
	assert.Equal(t, []time.Duration{16 * time.Hour}, flagger.calls)

	flagger.err = errors.New("db down")
	err := jobs.FlagStaleSessions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, flagger.err)
}

func TestTimeEntryJobs_RegisterJobs(t *testing.T) {
	cfg := config.TimeClockConfig{StaleSessionAfter: time.Hour, SweepInterval: time.Minute}
	flagger := &stubFlagger{}
	s := NewScheduler(context.Background())
	NewTimeEntryJobs(flagger, cfg).RegisterJobs(s)

	require.Len(t, s.jobs, 1)
	assert.Equal(t, "flag_stale_time_entries", s.jobs[0].Name)
	assert.Equal(t, time.Minute, s.jobs[0].Interval)

	s.RunOnce(context.Background())
	assert.Equal(t, 1, flagger.callCount())
}
