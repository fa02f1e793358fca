package timeentry

import (
	"context"
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/user"
)

// TimeEntryService defines business logic for time & attendance.
// Every operation receives the caller identity explicitly.
type TimeEntryService interface {
	// ClockIn opens a new shift after the geofence check
	ClockIn(ctx context.Context, actor user.Identity, req ClockInRequest) (TimeEntryResponse, error)

	// BreakStart and BreakEnd toggle the break state of the open shift
	BreakStart(ctx context.Context, actor user.Identity) (TimeEntryResponse, error)
	BreakEnd(ctx context.Context, actor user.Identity) (TimeEntryResponse, error)

	// ClockOut closes the open shift and records hours worked
	ClockOut(ctx context.Context, actor user.Identity, req ClockOutRequest) (TimeEntryResponse, error)

	// GetOpenSession returns the open shift of a technician, or nil
	GetOpenSession(ctx context.Context, actor user.Identity, technicianID string) (*TimeEntryResponse, error)

	// ListSessions lists a technician's entries in a window
	ListSessions(ctx context.Context, actor user.Identity, filter ListFilter) ([]TimeEntryResponse, error)

	GetEntry(ctx context.Context, actor user.Identity, id string) (TimeEntryResponse, error)

	// UpdateEntry edits notes, work-order link or breaks of an unlocked entry
	UpdateEntry(ctx context.Context, actor user.Identity, req UpdateTimeEntryRequest) (TimeEntryResponse, error)

	ClassifyHours(ctx context.Context, actor user.Identity, id string) (HoursResponse, error)
	HoursReport(ctx context.Context, actor user.Identity, filter ListFilter) (HoursSummary, error)

	// ComputePayroll splits a technician's hours into regular and overtime pay
	ComputePayroll(ctx context.Context, actor user.Identity, filter ListFilter) (PayrollPeriodSplit, error)
	// TeamPayroll computes the split for every technician of the caller's shop
	TeamPayroll(ctx context.Context, actor user.Identity, window Window) ([]PayrollPeriodSplit, error)

	// Approve locks an entry; Unlock is the audited reverse
	Approve(ctx context.Context, actor user.Identity, req ApproveTimeEntryRequest) (TimeEntryResponse, error)
	Unlock(ctx context.Context, actor user.Identity, req UnlockTimeEntryRequest) (TimeEntryResponse, error)

	// FlagStaleSessions marks entries open longer than maxOpen for review.
	// It never closes them.
	FlagStaleSessions(ctx context.Context, maxOpen time.Duration) (int, error)
}
