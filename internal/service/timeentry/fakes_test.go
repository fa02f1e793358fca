package timeentry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/config"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/shop"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/sse"
)

// memoryRepo stores deep copies so callers cannot mutate persisted state.
type memoryRepo struct {
	mu      sync.Mutex
	entries map[string]timeentry.TimeEntry
	updates int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{entries: make(map[string]timeentry.TimeEntry)}
}

func cloneEntry(e timeentry.TimeEntry) timeentry.TimeEntry {
	if e.Breaks != nil {
		e.Breaks = append(timeentry.BreakLedger{}, e.Breaks...)
	}
	return e
}

func (r *memoryRepo) Create(ctx context.Context, entry timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.TechnicianID == entry.TechnicianID && e.IsOpen() {
			return timeentry.TimeEntry{}, timeentry.ErrAlreadyClockedIn
		}
	}
	r.entries[entry.ID] = cloneEntry(entry)
	return cloneEntry(entry), nil
}

func (r *memoryRepo) Update(ctx context.Context, entry timeentry.TimeEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.ID]; !ok {
		return timeentry.ErrEntryNotFound
	}
	r.entries[entry.ID] = cloneEntry(entry)
	r.updates++
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id string, shopID string) (timeentry.TimeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.ShopID != shopID {
		return timeentry.TimeEntry{}, timeentry.ErrEntryNotFound
	}
	return cloneEntry(e), nil
}

func (r *memoryRepo) LockByID(ctx context.Context, id string, shopID string) (timeentry.TimeEntry, error) {
	return r.GetByID(ctx, id, shopID)
}

func (r *memoryRepo) GetOpenByTechnician(ctx context.Context, technicianID string, shopID string) (timeentry.TimeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.TechnicianID == technicianID && e.ShopID == shopID && e.IsOpen() {
			return cloneEntry(e), nil
		}
	}
	return timeentry.TimeEntry{}, timeentry.ErrEntryNotFound
}

func (r *memoryRepo) LockOpenByTechnician(ctx context.Context, technicianID string, shopID string) (timeentry.TimeEntry, error) {
	return r.GetOpenByTechnician(ctx, technicianID, shopID)
}

func (r *memoryRepo) HasOpenEntry(ctx context.Context, technicianID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.TechnicianID == technicianID && e.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) ListByTechnician(ctx context.Context, technicianID string, shopID string, window timeentry.Window) ([]timeentry.TimeEntry, error) {
	all, _ := r.ListByShop(ctx, shopID, window)
	var out []timeentry.TimeEntry
	for _, e := range all {
		if e.TechnicianID == technicianID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListByShop(ctx context.Context, shopID string, window timeentry.Window) ([]timeentry.TimeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []timeentry.TimeEntry
	for _, e := range r.entries {
		if e.ShopID == shopID && window.Contains(e.ClockIn) {
			out = append(out, cloneEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.Before(out[j].ClockIn) })
	return out, nil
}

func (r *memoryRepo) ListStaleOpen(ctx context.Context, clockedInBefore time.Time) ([]timeentry.TimeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []timeentry.TimeEntry
	for _, e := range r.entries {
		if e.IsOpen() && !e.NeedsReview && e.ClockIn.Before(clockedInBefore) {
			out = append(out, cloneEntry(e))
		}
	}
	return out, nil
}

func (r *memoryRepo) all() []timeentry.TimeEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]timeentry.TimeEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, cloneEntry(e))
	}
	return out
}

func (r *memoryRepo) put(e timeentry.TimeEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.ID] = cloneEntry(e)
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memoryShops struct {
	locations map[string]shop.LocationConfig
	policies  map[string]shop.PayrollPolicy
	rates     map[string]float64
}

func (s *memoryShops) GetLocationConfig(ctx context.Context, shopID string) (shop.LocationConfig, error) {
	cfg, ok := s.locations[shopID]
	if !ok {
		return shop.LocationConfig{ShopID: shopID}, nil
	}
	return cfg, nil
}

func (s *memoryShops) GetPayrollPolicy(ctx context.Context, shopID string) (shop.PayrollPolicy, error) {
	return s.policies[shopID], nil
}

func (s *memoryShops) GetHourlyRate(ctx context.Context, technicianID string, shopID string) (float64, error) {
	rate, ok := s.rates[technicianID]
	if !ok {
		return 0, shop.ErrHourlyRateNotFound
	}
	return rate, nil
}

type memoryWorkOrders map[string]bool

func (w memoryWorkOrders) Exists(ctx context.Context, workOrderID string, shopID string) (bool, error) {
	return w[workOrderID], nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	svc   *TimeEntryServiceImpl
	repo  *memoryRepo
	shops *memoryShops
	clock *fakeClock
	hub   *sse.Hub
}

func newTestEnv() *testEnv {
	repo := newMemoryRepo()
	shops := &memoryShops{
		locations: map[string]shop.LocationConfig{},
		policies:  map[string]shop.PayrollPolicy{},
		rates:     map[string]float64{},
	}
	clock := &fakeClock{now: time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)}
	hub := sse.NewHub()

	svc := NewTimeEntryService(
		passthroughTx{},
		repo,
		shops,
		memoryWorkOrders{"wo-1": true},
		hub,
		config.TimeClockConfig{DefaultRadiusMeters: shop.DefaultGeofenceRadiusMeters, LocationTimeout: time.Second},
		config.PayrollConfig{OvertimeThresholdHours: 40, OvertimeMultiplier: 1.5, Concurrency: 2},
	).(*TimeEntryServiceImpl)
	svc.now = clock.Now

	return &testEnv{svc: svc, repo: repo, shops: shops, clock: clock, hub: hub}
}
