package timeentry

import (
	"errors"
	"fmt"
	"time"
)

// Time entry domain errors
var (
	// Clock state errors
	ErrAlreadyClockedIn = errors.New("technician is already clocked in")
	ErrNotClockedIn     = errors.New("technician is not clocked in")
	ErrAlreadyOnBreak   = errors.New("technician is already on break")
	ErrNotOnBreak       = errors.New("technician is not on break")

	// Geofence errors
	ErrOutOfRange            = errors.New("reported location is outside the shop geofence")
	ErrLocationUnavailable   = errors.New("location could not be determined")
	ErrGeofenceNotConfigured = errors.New("geofencing is enforced but the shop has no registered location")

	// Approval errors
	ErrEntryLocked     = errors.New("time entry is locked")
	ErrEntryNotLocked  = errors.New("time entry is not locked")
	ErrEntryStillOpen  = errors.New("time entry is still open")
	ErrApproverBlocked = errors.New("role is not allowed to approve time entries")

	// General errors
	ErrEntryNotFound       = errors.New("time entry not found")
	ErrUnauthorized        = errors.New("unauthorized to access this time entry")
	ErrInvalidBreaks       = errors.New("break intervals are invalid")
	ErrInvalidWindow       = errors.New("window end must be after window start")
	ErrClockOutBeforeStart = errors.New("clock-out cannot be before clock-in")
)

// OutOfRangeError carries the measured distance so callers can present it.
type OutOfRangeError struct {
	DistanceMeters float64
	RadiusMeters   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: %.1fm away, allowed radius %.1fm", ErrOutOfRange, e.DistanceMeters, e.RadiusMeters)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// ClockSkewWarning is non-fatal. The computed elapsed time was negative and
// has been clamped to zero; the entry is flagged for manual review.
type ClockSkewWarning struct {
	EntryID  string
	Computed time.Duration
}

func (w *ClockSkewWarning) Error() string {
	return fmt.Sprintf("clock skew on time entry %s: elapsed computed as %s, clamped to 0", w.EntryID, w.Computed)
}
