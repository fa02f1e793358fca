package timeentry

import (
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/shop"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/validator"
)

// ========================================
// CLOCK DTOs
// ========================================

// ClockInRequest carries the optional device coordinate. LocationError is set
// by the client when the device could not produce one (permission denied,
// timeout); it is never treated as a pass.
type ClockInRequest struct {
	Coordinate    *shop.GeoCoordinate `json:"coordinate,omitempty"`
	LocationError *string             `json:"location_error,omitempty"`
	WorkOrderID   *string             `json:"work_order_id,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
}

func (r *ClockInRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateCoordinate(r.Coordinate)...)

	if r.WorkOrderID != nil && validator.IsEmpty(*r.WorkOrderID) {
		errs = append(errs, validator.ValidationError{
			Field:   "work_order_id",
			Message: "work_order_id must not be blank",
		})
	}

	if r.Notes != nil && len(*r.Notes) > MaxNotesLength {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes must not exceed 2000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ClockOutRequest struct {
	Coordinate    *shop.GeoCoordinate `json:"coordinate,omitempty"`
	LocationError *string             `json:"location_error,omitempty"`
}

func (r *ClockOutRequest) Validate() error {
	if errs := validateCoordinate(r.Coordinate); len(errs) > 0 {
		return errs
	}
	return nil
}

func validateCoordinate(c *shop.GeoCoordinate) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if c == nil {
		return errs
	}
	if !validator.IsInRange(c.Latitude, -90, 90) {
		errs = append(errs, validator.ValidationError{
			Field:   "coordinate.latitude",
			Message: "latitude must be between -90 and 90",
		})
	}
	if !validator.IsInRange(c.Longitude, -180, 180) {
		errs = append(errs, validator.ValidationError{
			Field:   "coordinate.longitude",
			Message: "longitude must be between -180 and 180",
		})
	}
	return errs
}

// ========================================
// EDIT DTOs
// ========================================

const MaxNotesLength = 2000

type BreakInput struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// UpdateTimeEntryRequest edits an unlocked entry. Breaks replaces the whole
// list; the legacy BreakStart/BreakEnd pair is accepted as a one-element list.
type UpdateTimeEntryRequest struct {
	ID             string       `json:"-"`
	Notes          *string      `json:"notes,omitempty"`
	WorkOrderID    *string      `json:"work_order_id,omitempty"`
	ClearWorkOrder bool         `json:"clear_work_order,omitempty"`
	Breaks         []BreakInput `json:"breaks,omitempty"`
	BreakStart     *time.Time   `json:"break_start,omitempty"`
	BreakEnd       *time.Time   `json:"break_end,omitempty"`
}

func (r *UpdateTimeEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if r.Notes != nil && len(*r.Notes) > MaxNotesLength {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes must not exceed 2000 characters",
		})
	}

	if r.WorkOrderID != nil && r.ClearWorkOrder {
		errs = append(errs, validator.ValidationError{
			Field:   "work_order_id",
			Message: "work_order_id cannot be combined with clear_work_order",
		})
	}

	if len(r.Breaks) > 0 && (r.BreakStart != nil || r.BreakEnd != nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "breaks",
			Message: "use either breaks or break_start/break_end, not both",
		})
	}

	if r.BreakStart == nil && r.BreakEnd != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "break_start",
			Message: "break_start is required when break_end is set",
		})
	}

	if !r.HasChanges() {
		errs = append(errs, validator.ValidationError{
			Field:   "body",
			Message: "no updatable fields provided",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// HasChanges reports whether any field was supplied.
func (r *UpdateTimeEntryRequest) HasChanges() bool {
	return r.Notes != nil || r.WorkOrderID != nil || r.ClearWorkOrder || r.ReplacesBreaks()
}

// ReplacesBreaks reports whether the request carries a new break list.
func (r *UpdateTimeEntryRequest) ReplacesBreaks() bool {
	return r.Breaks != nil || r.BreakStart != nil
}

// Ledger converts either break representation into a BreakLedger.
func (r *UpdateTimeEntryRequest) Ledger() BreakLedger {
	if r.BreakStart != nil {
		return LedgerFromLegacy(r.BreakStart, r.BreakEnd)
	}
	ledger := make(BreakLedger, 0, len(r.Breaks))
	for _, b := range r.Breaks {
		ledger = append(ledger, BreakInterval{Start: b.Start, End: b.End})
	}
	return ledger.Normalize()
}

// ========================================
// APPROVAL DTOs
// ========================================

type ApproveTimeEntryRequest struct {
	ID string `json:"-"`
}

// UnlockTimeEntryRequest requires a reason; unlock is an audited exception.
type UnlockTimeEntryRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

func (r *UnlockTimeEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "unlock reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// QUERY DTOs
// ========================================

// ListFilter selects a technician and a window. From/To accept YYYY-MM-DD or
// RFC3339; To is exclusive.
type ListFilter struct {
	TechnicianID string `json:"technician_id,omitempty"`
	From         string `json:"from"`
	To           string `json:"to"`

	window Window
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	from, ok := parseBound(f.From)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from must be YYYY-MM-DD or RFC3339",
		})
	}

	to, ok := parseBound(f.To)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must be YYYY-MM-DD or RFC3339",
		})
	}

	if len(errs) == 0 && !to.After(from) {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must be after from",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	f.window = Window{From: from, To: to}
	return nil
}

// Window is valid only after Validate succeeded.
func (f *ListFilter) Window() Window {
	return f.window
}

func parseBound(s string) (time.Time, bool) {
	if validator.IsEmpty(s) {
		return time.Time{}, false
	}
	if t, ok := validator.IsValidDateTime(s); ok {
		return t.UTC(), true
	}
	if t, ok := validator.IsValidDate(s); ok {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// ========================================
// RESPONSE DTOs
// ========================================

type BreakResponse struct {
	Start           string  `json:"start"`
	End             *string `json:"end,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Active          bool    `json:"active"`
}

type TimeEntryResponse struct {
	ID                 string              `json:"id"`
	TechnicianID       string              `json:"technician_id"`
	ShopID             string              `json:"shop_id"`
	State              State               `json:"state"`
	ClockIn            string              `json:"clock_in"`
	ClockOut           *string             `json:"clock_out,omitempty"`
	Breaks             []BreakResponse     `json:"breaks"`
	ElapsedHours       float64             `json:"elapsed_hours"`
	HoursWorked        *float64            `json:"hours_worked,omitempty"`
	WorkOrderID        *string             `json:"work_order_id,omitempty"`
	Billable           bool                `json:"billable"`
	Notes              *string             `json:"notes,omitempty"`
	ClockInCoordinate  *shop.GeoCoordinate `json:"clock_in_coordinate,omitempty"`
	ClockOutCoordinate *shop.GeoCoordinate `json:"clock_out_coordinate,omitempty"`
	DistanceMeters     *float64            `json:"distance_meters,omitempty"`
	Approved           bool                `json:"approved"`
	Locked             bool                `json:"locked"`
	ApprovedBy         *string             `json:"approved_by,omitempty"`
	ApprovedAt         *string             `json:"approved_at,omitempty"`
	NeedsReview        bool                `json:"needs_review"`
	ReviewReason       *string             `json:"review_reason,omitempty"`
	Warnings           []string            `json:"warnings,omitempty"`
	CreatedAt          string              `json:"created_at"`
	UpdatedAt          string              `json:"updated_at"`
}

type HoursResponse struct {
	EntryID          string  `json:"entry_id"`
	BillableHours    float64 `json:"billable_hours"`
	NonBillableHours float64 `json:"non_billable_hours"`
}

type HoursSummary struct {
	TechnicianID     string    `json:"technician_id"`
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
	EntryCount       int       `json:"entry_count"`
	BillableHours    float64   `json:"billable_hours"`
	NonBillableHours float64   `json:"non_billable_hours"`
	TotalHours       float64   `json:"total_hours"`
}
