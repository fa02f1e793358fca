package timeentry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shoptrack/shoptrack-backend-go/internal/config"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/shop"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/user"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/workorder"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/sse"
	"golang.org/x/sync/errgroup"
)

type TimeEntryServiceImpl struct {
	transactor timeentry.Transactor
	timeentry.TimeEntryRepository
	shop.ShopRepository
	workorder.WorkOrderRepository
	hub *sse.Hub

	splitter           PayrollSplitter
	payrollConcurrency int
	defaultRadius      float64
	locationTimeout    time.Duration

	locks *keyedMutex
	now   func() time.Time
}

// timePtrToString safely converts a *time.Time to an RFC3339 string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

// ClockIn implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) ClockIn(ctx context.Context, actor user.Identity, req timeentry.ClockInRequest) (timeentry.TimeEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return timeentry.TimeEntryResponse{}, err
	}
	if err := requireClockIdentity(actor); err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	unlock := s.locks.Lock(actor.TechnicianID)
	defer unlock()

	open, err := s.TimeEntryRepository.HasOpenEntry(ctx, actor.TechnicianID)
	if err != nil {
		return timeentry.TimeEntryResponse{}, fmt.Errorf("failed to check open session: %w", err)
	}
	if open {
		return timeentry.TimeEntryResponse{}, timeentry.ErrAlreadyClockedIn
	}

	check, err := s.checkLocation(ctx, actor.ShopID, reportedLocation{coordinate: req.Coordinate, failure: req.LocationError})
	if err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	if req.WorkOrderID != nil {
		if err := s.ensureWorkOrder(ctx, *req.WorkOrderID, actor.ShopID); err != nil {
			return timeentry.TimeEntryResponse{}, err
		}
	}

	now := s.now().UTC()
	entry := timeentry.TimeEntry{
		ID:                uuid.Must(uuid.NewV7()).String(),
		TechnicianID:      actor.TechnicianID,
		ShopID:            actor.ShopID,
		ClockIn:           now,
		Breaks:            timeentry.BreakLedger{},
		WorkOrderID:       req.WorkOrderID,
		Notes:             req.Notes,
		ClockInCoordinate: check.coordinate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var created timeentry.TimeEntry
	err = s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.TimeEntryRepository.Create(ctx, entry)
		return err
	})
	if err != nil {
		if errors.Is(err, timeentry.ErrAlreadyClockedIn) {
			return timeentry.TimeEntryResponse{}, err
		}
		return timeentry.TimeEntryResponse{}, fmt.Errorf("failed to create time entry: %w", err)
	}

	slog.Info("technician clocked in",
		"entry_id", created.ID,
		"technician_id", created.TechnicianID,
		"shop_id", created.ShopID,
		"billable", created.Billable(),
	)

	resp := mapEntryToResponse(created, now)
	resp.DistanceMeters = check.distance
	s.publish(resp)
	return resp, nil
}

// BreakStart implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) BreakStart(ctx context.Context, actor user.Identity) (timeentry.TimeEntryResponse, error) {
	return s.transitionOpen(ctx, actor, "break started", func(entry *timeentry.TimeEntry, now time.Time) error {
		return entry.StartBreak(now)
	})
}

// BreakEnd implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) BreakEnd(ctx context.Context, actor user.Identity) (timeentry.TimeEntryResponse, error) {
	return s.transitionOpen(ctx, actor, "break ended", func(entry *timeentry.TimeEntry, now time.Time) error {
		return entry.EndBreak(now)
	})
}

// ClockOut implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) ClockOut(ctx context.Context, actor user.Identity, req timeentry.ClockOutRequest) (timeentry.TimeEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return timeentry.TimeEntryResponse{}, err
	}
	if err := requireClockIdentity(actor); err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	unlock := s.locks.Lock(actor.TechnicianID)
	defer unlock()

	if _, err := s.TimeEntryRepository.GetOpenByTechnician(ctx, actor.TechnicianID, actor.ShopID); err != nil {
		if errors.Is(err, timeentry.ErrEntryNotFound) {
			return timeentry.TimeEntryResponse{}, timeentry.ErrNotClockedIn
		}
		return timeentry.TimeEntryResponse{}, fmt.Errorf("failed to get open session: %w", err)
	}

	check, err := s.checkLocation(ctx, actor.ShopID, reportedLocation{coordinate: req.Coordinate, failure: req.LocationError})
	if err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	var (
		closed  timeentry.TimeEntry
		warning *timeentry.ClockSkewWarning
		now     time.Time
	)
	err = s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		entry, err := s.lockOpen(ctx, actor)
		if err != nil {
			return err
		}

		now = s.now().UTC()
		warning, err = entry.Close(now)
		if err != nil {
			return err
		}
		entry.ClockOutCoordinate = check.coordinate
		entry.UpdatedAt = now

		if err := s.TimeEntryRepository.Update(ctx, entry); err != nil {
			return fmt.Errorf("failed to update time entry: %w", err)
		}
		closed = entry
		return nil
	})
	if err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	resp := mapEntryToResponse(closed, now)
	resp.DistanceMeters = check.distance
	if warning != nil {
		slog.Warn("clock skew detected on clock-out",
			"entry_id", closed.ID,
			"technician_id", closed.TechnicianID,
			"computed", warning.Computed.String(),
		)
		resp.Warnings = append(resp.Warnings, warning.Error())
	}

	slog.Info("technician clocked out",
		"entry_id", closed.ID,
		"technician_id", closed.TechnicianID,
		"hours_worked", resp.ElapsedHours,
	)
	s.publish(resp)
	return resp, nil
}

// transitionOpen runs a break transition on the caller's open entry inside one
// transaction. A failed guard leaves the stored entry untouched.
func (s *TimeEntryServiceImpl) transitionOpen(ctx context.Context, actor user.Identity, action string, apply func(*timeentry.TimeEntry, time.Time) error) (timeentry.TimeEntryResponse, error) {
	if err := requireClockIdentity(actor); err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	unlock := s.locks.Lock(actor.TechnicianID)
	defer unlock()

	var (
		updated timeentry.TimeEntry
		now     time.Time
	)
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		entry, err := s.lockOpen(ctx, actor)
		if err != nil {
			return err
		}

		now = s.now().UTC()
		if err := apply(&entry, now); err != nil {
			return err
		}
		entry.UpdatedAt = now

		if err := s.TimeEntryRepository.Update(ctx, entry); err != nil {
			return fmt.Errorf("failed to update time entry: %w", err)
		}
		updated = entry
		return nil
	})
	if err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	slog.Info(action, "entry_id", updated.ID, "technician_id", updated.TechnicianID)

	resp := mapEntryToResponse(updated, now)
	s.publish(resp)
	return resp, nil
}

func (s *TimeEntryServiceImpl) lockOpen(ctx context.Context, actor user.Identity) (timeentry.TimeEntry, error) {
	entry, err := s.TimeEntryRepository.LockOpenByTechnician(ctx, actor.TechnicianID, actor.ShopID)
	if err != nil {
		if errors.Is(err, timeentry.ErrEntryNotFound) {
			return timeentry.TimeEntry{}, timeentry.ErrNotClockedIn
		}
		return timeentry.TimeEntry{}, fmt.Errorf("failed to lock open session: %w", err)
	}
	return entry, nil
}

func (s *TimeEntryServiceImpl) checkLocation(ctx context.Context, shopID string, loc reportedLocation) (geofenceCheck, error) {
	cfg, err := s.ShopRepository.GetLocationConfig(ctx, shopID)
	if err != nil {
		if errors.Is(err, shop.ErrShopNotFound) {
			return geofenceCheck{}, err
		}
		return geofenceCheck{}, fmt.Errorf("failed to get shop location config: %w", err)
	}
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = s.defaultRadius
	}
	return s.verifyLocation(ctx, cfg, loc)
}

func (s *TimeEntryServiceImpl) ensureWorkOrder(ctx context.Context, workOrderID string, shopID string) error {
	exists, err := s.WorkOrderRepository.Exists(ctx, workOrderID, shopID)
	if err != nil {
		return fmt.Errorf("failed to check work order: %w", err)
	}
	if !exists {
		return workorder.ErrWorkOrderNotFound
	}
	return nil
}

// GetOpenSession implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) GetOpenSession(ctx context.Context, actor user.Identity, technicianID string) (*timeentry.TimeEntryResponse, error) {
	technicianID, err := resolveTechnician(actor, technicianID, user.PermissionTimeEntryViewOwn, user.PermissionTimeEntryViewAll)
	if err != nil {
		return nil, err
	}

	entry, err := s.TimeEntryRepository.GetOpenByTechnician(ctx, technicianID, actor.ShopID)
	if err != nil {
		if errors.Is(err, timeentry.ErrEntryNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open session: %w", err)
	}

	resp := mapEntryToResponse(entry, s.now().UTC())
	return &resp, nil
}

// ListSessions implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) ListSessions(ctx context.Context, actor user.Identity, filter timeentry.ListFilter) ([]timeentry.TimeEntryResponse, error) {
	read, err := s.listForTechnician(ctx, actor, filter, user.PermissionTimeEntryViewOwn, user.PermissionTimeEntryViewAll)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	responses := make([]timeentry.TimeEntryResponse, 0, len(read.entries))
	for _, e := range read.entries {
		responses = append(responses, mapEntryToResponse(e, now))
	}
	return responses, nil
}

// technicianEntries is a validated per-technician read: the resolved
// technician, the window it covers and the entries clocked in within it.
type technicianEntries struct {
	technicianID string
	window       timeentry.Window
	entries      []timeentry.TimeEntry
}

func (s *TimeEntryServiceImpl) listForTechnician(ctx context.Context, actor user.Identity, filter timeentry.ListFilter, own, all user.Permission) (technicianEntries, error) {
	if err := filter.Validate(); err != nil {
		return technicianEntries{}, err
	}
	technicianID, err := resolveTechnician(actor, filter.TechnicianID, own, all)
	if err != nil {
		return technicianEntries{}, err
	}

	window := filter.Window()
	entries, err := s.TimeEntryRepository.ListByTechnician(ctx, technicianID, actor.ShopID, window)
	if err != nil {
		return technicianEntries{}, fmt.Errorf("failed to list time entries: %w", err)
	}
	return technicianEntries{technicianID: technicianID, window: window, entries: entries}, nil
}

// GetEntry implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) GetEntry(ctx context.Context, actor user.Identity, id string) (timeentry.TimeEntryResponse, error) {
	entry, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return timeentry.TimeEntryResponse{}, err
	}
	return mapEntryToResponse(entry, s.now().UTC()), nil
}

func (s *TimeEntryServiceImpl) getVisible(ctx context.Context, actor user.Identity, id string) (timeentry.TimeEntry, error) {
	if actor.ShopID == "" {
		return timeentry.TimeEntry{}, user.ErrShopIDRequired
	}
	entry, err := s.TimeEntryRepository.GetByID(ctx, id, actor.ShopID)
	if err != nil {
		if errors.Is(err, timeentry.ErrEntryNotFound) {
			return timeentry.TimeEntry{}, err
		}
		return timeentry.TimeEntry{}, fmt.Errorf("failed to get time entry: %w", err)
	}
	if !canAccess(actor, entry, user.PermissionTimeEntryViewOwn, user.PermissionTimeEntryViewAll) {
		return timeentry.TimeEntry{}, timeentry.ErrUnauthorized
	}
	return entry, nil
}

// UpdateEntry implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) UpdateEntry(ctx context.Context, actor user.Identity, req timeentry.UpdateTimeEntryRequest) (timeentry.TimeEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return timeentry.TimeEntryResponse{}, err
	}
	if actor.ShopID == "" {
		return timeentry.TimeEntryResponse{}, user.ErrShopIDRequired
	}

	var (
		updated timeentry.TimeEntry
		warning *timeentry.ClockSkewWarning
		now     time.Time
	)
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		entry, err := s.lockByID(ctx, req.ID, actor.ShopID)
		if err != nil {
			return err
		}
		if !canAccess(actor, entry, user.PermissionTimeEntryEditOwn, user.PermissionTimeEntryEditAll) {
			return timeentry.ErrUnauthorized
		}
		if err := entry.EnsureMutable(); err != nil {
			return err
		}
		if req.WorkOrderID != nil {
			if err := s.ensureWorkOrder(ctx, *req.WorkOrderID, actor.ShopID); err != nil {
				return err
			}
		}

		now = s.now().UTC()
		if req.Notes != nil {
			entry.Notes = req.Notes
		}
		if req.WorkOrderID != nil {
			entry.WorkOrderID = req.WorkOrderID
		}
		if req.ClearWorkOrder {
			entry.WorkOrderID = nil
		}
		if req.ReplacesBreaks() {
			warning, err = entry.ReplaceBreaks(req.Ledger(), now)
			if err != nil {
				return err
			}
		}

		entry.UpdatedAt = now
		if err := s.TimeEntryRepository.Update(ctx, entry); err != nil {
			return fmt.Errorf("failed to update time entry: %w", err)
		}
		updated = entry
		return nil
	})
	if err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	slog.Info("time entry updated",
		"entry_id", updated.ID,
		"technician_id", updated.TechnicianID,
		"updated_by", actor.UserID,
	)

	resp := mapEntryToResponse(updated, now)
	if warning != nil {
		resp.Warnings = append(resp.Warnings, warning.Error())
	}
	s.publish(resp)
	return resp, nil
}

func (s *TimeEntryServiceImpl) lockByID(ctx context.Context, id string, shopID string) (timeentry.TimeEntry, error) {
	entry, err := s.TimeEntryRepository.LockByID(ctx, id, shopID)
	if err != nil {
		if errors.Is(err, timeentry.ErrEntryNotFound) {
			return timeentry.TimeEntry{}, err
		}
		return timeentry.TimeEntry{}, fmt.Errorf("failed to lock time entry: %w", err)
	}
	return entry, nil
}

// ClassifyHours implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) ClassifyHours(ctx context.Context, actor user.Identity, id string) (timeentry.HoursResponse, error) {
	entry, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return timeentry.HoursResponse{}, err
	}

	billable, nonBillable := Classify(entry, s.now().UTC())
	return timeentry.HoursResponse{
		EntryID:          entry.ID,
		BillableHours:    billable,
		NonBillableHours: nonBillable,
	}, nil
}

// HoursReport implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) HoursReport(ctx context.Context, actor user.Identity, filter timeentry.ListFilter) (timeentry.HoursSummary, error) {
	read, err := s.listForTechnician(ctx, actor, filter, user.PermissionTimeEntryViewOwn, user.PermissionReportsView)
	if err != nil {
		return timeentry.HoursSummary{}, err
	}
	return Aggregate(read.technicianID, read.entries, read.window, s.now().UTC()), nil
}

// ComputePayroll implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) ComputePayroll(ctx context.Context, actor user.Identity, filter timeentry.ListFilter) (timeentry.PayrollPeriodSplit, error) {
	read, err := s.listForTechnician(ctx, actor, filter, user.PermissionPayrollViewOwn, user.PermissionPayrollViewAll)
	if err != nil {
		return timeentry.PayrollPeriodSplit{}, err
	}

	splitter, err := s.splitterFor(ctx, actor.ShopID)
	if err != nil {
		return timeentry.PayrollPeriodSplit{}, err
	}

	rate, err := s.hourlyRate(ctx, read.technicianID, actor.ShopID)
	if err != nil {
		return timeentry.PayrollPeriodSplit{}, err
	}

	return splitter.Split(read.technicianID, read.entries, rate, read.window, s.now().UTC()), nil
}

// TeamPayroll implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) TeamPayroll(ctx context.Context, actor user.Identity, window timeentry.Window) ([]timeentry.PayrollPeriodSplit, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if actor.ShopID == "" {
		return nil, user.ErrShopIDRequired
	}
	if !user.HasPermission(actor.Role, user.PermissionPayrollViewAll) {
		return nil, user.ErrManagerAccessRequired
	}

	entries, err := s.TimeEntryRepository.ListByShop(ctx, actor.ShopID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop time entries: %w", err)
	}

	byTechnician := make(map[string][]timeentry.TimeEntry)
	for _, e := range entries {
		byTechnician[e.TechnicianID] = append(byTechnician[e.TechnicianID], e)
	}
	technicianIDs := make([]string, 0, len(byTechnician))
	for id := range byTechnician {
		technicianIDs = append(technicianIDs, id)
	}
	sort.Strings(technicianIDs)

	splitter, err := s.splitterFor(ctx, actor.ShopID)
	if err != nil {
		return nil, err
	}

	asOf := s.now().UTC()
	splits := make([]timeentry.PayrollPeriodSplit, len(technicianIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.payrollConcurrency)
	for i, technicianID := range technicianIDs {
		g.Go(func() error {
			rate, err := s.hourlyRate(gctx, technicianID, actor.ShopID)
			if err != nil {
				return err
			}
			splits[i] = splitter.Split(technicianID, byTechnician[technicianID], rate, window, asOf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return splits, nil
}

func (s *TimeEntryServiceImpl) splitterFor(ctx context.Context, shopID string) (PayrollSplitter, error) {
	policy, err := s.ShopRepository.GetPayrollPolicy(ctx, shopID)
	if err != nil {
		if errors.Is(err, shop.ErrShopNotFound) {
			return PayrollSplitter{}, err
		}
		return PayrollSplitter{}, fmt.Errorf("failed to get payroll policy: %w", err)
	}
	return s.splitter.WithPolicy(policy), nil
}

func (s *TimeEntryServiceImpl) hourlyRate(ctx context.Context, technicianID string, shopID string) (float64, error) {
	rate, err := s.ShopRepository.GetHourlyRate(ctx, technicianID, shopID)
	if err != nil {
		if errors.Is(err, shop.ErrHourlyRateNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to get hourly rate for technician %s: %w", technicianID, err)
	}
	return rate, nil
}

// Approve implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) Approve(ctx context.Context, actor user.Identity, req timeentry.ApproveTimeEntryRequest) (timeentry.TimeEntryResponse, error) {
	if actor.ShopID == "" {
		return timeentry.TimeEntryResponse{}, user.ErrShopIDRequired
	}

	var (
		approved timeentry.TimeEntry
		now      time.Time
	)
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		entry, err := s.lockByID(ctx, req.ID, actor.ShopID)
		if err != nil {
			return err
		}

		now = s.now().UTC()
		if err := Approve(&entry, actor.Role, actor.UserID, now); err != nil {
			return err
		}
		entry.UpdatedAt = now

		if err := s.TimeEntryRepository.Update(ctx, entry); err != nil {
			return fmt.Errorf("failed to update time entry: %w", err)
		}
		approved = entry
		return nil
	})
	if err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	slog.Info("time entry approved",
		"entry_id", approved.ID,
		"technician_id", approved.TechnicianID,
		"approved_by", actor.UserID,
	)

	resp := mapEntryToResponse(approved, now)
	s.publish(resp)
	return resp, nil
}

// Unlock implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) Unlock(ctx context.Context, actor user.Identity, req timeentry.UnlockTimeEntryRequest) (timeentry.TimeEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return timeentry.TimeEntryResponse{}, err
	}
	if actor.ShopID == "" {
		return timeentry.TimeEntryResponse{}, user.ErrShopIDRequired
	}

	var (
		unlocked timeentry.TimeEntry
		now      time.Time
	)
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		entry, err := s.lockByID(ctx, req.ID, actor.ShopID)
		if err != nil {
			return err
		}
		if err := Unlock(&entry, actor.Role); err != nil {
			return err
		}

		now = s.now().UTC()
		entry.UpdatedAt = now
		if err := s.TimeEntryRepository.Update(ctx, entry); err != nil {
			return fmt.Errorf("failed to update time entry: %w", err)
		}
		unlocked = entry
		return nil
	})
	if err != nil {
		return timeentry.TimeEntryResponse{}, err
	}

	slog.Warn("time entry unlocked",
		"entry_id", unlocked.ID,
		"technician_id", unlocked.TechnicianID,
		"shop_id", unlocked.ShopID,
		"unlocked_by", actor.UserID,
		"role", string(actor.Role),
		"reason", req.Reason,
	)

	resp := mapEntryToResponse(unlocked, now)
	s.publish(resp)
	return resp, nil
}

// FlagStaleSessions implements timeentry.TimeEntryService.
func (s *TimeEntryServiceImpl) FlagStaleSessions(ctx context.Context, maxOpen time.Duration) (int, error) {
	now := s.now().UTC()
	stale, err := s.TimeEntryRepository.ListStaleOpen(ctx, now.Add(-maxOpen))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale sessions: %w", err)
	}

	flagged := 0
	for _, candidate := range stale {
		err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
			entry, err := s.lockByID(ctx, candidate.ID, candidate.ShopID)
			if err != nil {
				return err
			}
			if !entry.IsOpen() || entry.NeedsReview {
				return nil
			}
			entry.FlagForReview(fmt.Sprintf("open for more than %s", maxOpen))
			entry.UpdatedAt = now
			if err := s.TimeEntryRepository.Update(ctx, entry); err != nil {
				return err
			}
			flagged++
			return nil
		})
		if err != nil {
			slog.Error("failed to flag stale session", "entry_id", candidate.ID, "error", err)
		}
	}
	return flagged, nil
}

func (s *TimeEntryServiceImpl) publish(resp timeentry.TimeEntryResponse) {
	if s.hub == nil {
		return
	}
	event := sse.Event{Name: timeentry.EventEntryChanged, Data: resp}
	s.hub.PublishToMany([]string{
		timeentry.TechnicianTopic(resp.TechnicianID),
		timeentry.ShopTopic(resp.ShopID),
	}, event)
}

func requireClockIdentity(actor user.Identity) error {
	if actor.ShopID == "" {
		return user.ErrShopIDRequired
	}
	if actor.TechnicianID == "" {
		return user.ErrTechnicianIDRequired
	}
	if !user.HasPermission(actor.Role, user.PermissionTimeEntryClock) {
		return user.ErrInsufficientPermissions
	}
	return nil
}

// resolveTechnician picks the technician a read targets. An empty or own id
// needs the own permission; anyone else needs the all permission.
func resolveTechnician(actor user.Identity, technicianID string, own, all user.Permission) (string, error) {
	if actor.ShopID == "" {
		return "", user.ErrShopIDRequired
	}
	if technicianID == "" {
		technicianID = actor.TechnicianID
	}
	if technicianID == "" {
		return "", user.ErrTechnicianIDRequired
	}
	if technicianID == actor.TechnicianID && user.HasPermission(actor.Role, own) {
		return technicianID, nil
	}
	if user.HasPermission(actor.Role, all) {
		return technicianID, nil
	}
	return "", user.ErrInsufficientPermissions
}

func canAccess(actor user.Identity, entry timeentry.TimeEntry, own, all user.Permission) bool {
	if entry.TechnicianID == actor.TechnicianID && user.HasPermission(actor.Role, own) {
		return true
	}
	return user.HasPermission(actor.Role, all)
}

func mapEntryToResponse(e timeentry.TimeEntry, now time.Time) timeentry.TimeEntryResponse {
	breaks := make([]timeentry.BreakResponse, 0, len(e.Breaks))
	for _, b := range e.Breaks {
		breaks = append(breaks, timeentry.BreakResponse{
			Start:           b.Start.UTC().Format(time.RFC3339),
			End:             timePtrToString(b.End),
			DurationMinutes: b.DurationMinutes,
			Active:          b.Active(),
		})
	}

	elapsed, warning := e.NetElapsed(now)

	resp := timeentry.TimeEntryResponse{
		ID:                 e.ID,
		TechnicianID:       e.TechnicianID,
		ShopID:             e.ShopID,
		State:              e.State(),
		ClockIn:            e.ClockIn.UTC().Format(time.RFC3339),
		ClockOut:           timePtrToString(e.ClockOut),
		Breaks:             breaks,
		ElapsedHours:       elapsed.Hours(),
		HoursWorked:        e.HoursWorked,
		WorkOrderID:        e.WorkOrderID,
		Billable:           e.Billable(),
		Notes:              e.Notes,
		ClockInCoordinate:  e.ClockInCoordinate,
		ClockOutCoordinate: e.ClockOutCoordinate,
		Approved:           e.Approved,
		Locked:             e.Locked,
		ApprovedBy:         e.ApprovedBy,
		ApprovedAt:         timePtrToString(e.ApprovedAt),
		NeedsReview:        e.NeedsReview,
		ReviewReason:       e.ReviewReason,
		CreatedAt:          e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          e.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if warning != nil && e.IsOpen() {
		resp.Warnings = append(resp.Warnings, warning.Error())
	}
	return resp
}

func NewTimeEntryService(
	transactor timeentry.Transactor,
	timeEntryRepo timeentry.TimeEntryRepository,
	shopRepo shop.ShopRepository,
	workOrderRepo workorder.WorkOrderRepository,
	hub *sse.Hub,
	timeClockCfg config.TimeClockConfig,
	payrollCfg config.PayrollConfig,
) timeentry.TimeEntryService {
	splitter := NewPayrollSplitter()
	if payrollCfg.OvertimeThresholdHours > 0 {
		splitter.ThresholdHours = payrollCfg.OvertimeThresholdHours
	}
	if payrollCfg.OvertimeMultiplier > 0 {
		splitter.OvertimeMultiplier = payrollCfg.OvertimeMultiplier
	}

	concurrency := payrollCfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	radius := timeClockCfg.DefaultRadiusMeters
	if radius <= 0 {
		radius = shop.DefaultGeofenceRadiusMeters
	}

	return &TimeEntryServiceImpl{
		transactor:          transactor,
		TimeEntryRepository: timeEntryRepo,
		ShopRepository:      shopRepo,
		WorkOrderRepository: workOrderRepo,
		hub:                 hub,
		splitter:            splitter,
		payrollConcurrency:  concurrency,
		defaultRadius:       radius,
		locationTimeout:     timeClockCfg.LocationTimeout,
		locks:               newKeyedMutex(),
		now:                 time.Now,
	}
}
