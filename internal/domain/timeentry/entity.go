package timeentry

import (
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/shop"
)

// State of a technician's shift.
type State string

const (
	StateClosed  State = "closed"
	StateOpen    State = "open"
	StateOnBreak State = "on_break"
)

// BreakInterval is one break inside a shift. End is nil while the break is active.
type BreakInterval struct {
	Start           time.Time  `json:"start"`
	End             *time.Time `json:"end,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
}

// Active reports whether the break has not ended yet.
func (b BreakInterval) Active() bool {
	return b.End == nil
}

// TimeEntry is one technician's clocked-in period (a shift session).
type TimeEntry struct {
	ID           string
	TechnicianID string
	ShopID       string
	ClockIn      time.Time
	ClockOut     *time.Time
	Breaks       BreakLedger
	WorkOrderID  *string
	Notes        *string
	HoursWorked  *float64

	ClockInCoordinate  *shop.GeoCoordinate
	ClockOutCoordinate *shop.GeoCoordinate

	Approved   bool
	Locked     bool
	ApprovedBy *string
	ApprovedAt *time.Time

	NeedsReview  bool
	ReviewReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// State derives the state machine position from the stored timestamps.
func (e *TimeEntry) State() State {
	if e.ClockOut != nil {
		return StateClosed
	}
	if e.Breaks.OnBreak() {
		return StateOnBreak
	}
	return StateOpen
}

// IsOpen reports whether the entry has no clock-out yet.
func (e *TimeEntry) IsOpen() bool {
	return e.ClockOut == nil
}

// Billable reports whether the entry is linked to a work order.
func (e *TimeEntry) Billable() bool {
	return e.WorkOrderID != nil && *e.WorkOrderID != ""
}

// Window is a reporting range with inclusive start and exclusive end.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Validate() error {
	if !w.To.After(w.From) {
		return ErrInvalidWindow
	}
	return nil
}

// Contains reports whether t falls in [From, To).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// PayrollPeriodSplit is derived on demand and never persisted.
type PayrollPeriodSplit struct {
	TechnicianID  string    `json:"technician_id"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	RegularHours  float64   `json:"regular_hours"`
	OvertimeHours float64   `json:"overtime_hours"`
	HourlyRate    float64   `json:"hourly_rate"`
	RegularPay    float64   `json:"regular_pay"`
	OvertimePay   float64   `json:"overtime_pay"`
	TotalPay      float64   `json:"total_pay"`
}
