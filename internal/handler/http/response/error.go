package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/shop"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/user"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/workorder"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Geofence rejections carry the measured distance
	var outOfRange *timeentry.OutOfRangeError
	if errors.As(err, &outOfRange) {
		ErrorWithCode(w, http.StatusForbidden, "OUT_OF_RANGE", "You are too far from the shop to clock in or out", map[string]string{
			"distance_meters": fmt.Sprintf("%.1f", outOfRange.DistanceMeters),
			"radius_meters":   fmt.Sprintf("%.1f", outOfRange.RadiusMeters),
		})
		return
	}

	switch {
	// Clock state errors
	case errors.Is(err, timeentry.ErrAlreadyClockedIn):
		ErrorWithCode(w, http.StatusConflict, "ALREADY_CLOCKED_IN", "Already clocked in", nil)
	case errors.Is(err, timeentry.ErrNotClockedIn):
		ErrorWithCode(w, http.StatusConflict, "NOT_CLOCKED_IN", "Not clocked in", nil)
	case errors.Is(err, timeentry.ErrAlreadyOnBreak):
		ErrorWithCode(w, http.StatusConflict, "ALREADY_ON_BREAK", "Already on break", nil)
	case errors.Is(err, timeentry.ErrNotOnBreak):
		ErrorWithCode(w, http.StatusConflict, "NOT_ON_BREAK", "Not on break", nil)

	// Geofence errors
	case errors.Is(err, timeentry.ErrOutOfRange):
		ErrorWithCode(w, http.StatusForbidden, "OUT_OF_RANGE", "You are too far from the shop to clock in or out", nil)
	case errors.Is(err, timeentry.ErrLocationUnavailable):
		ErrorWithCode(w, http.StatusUnprocessableEntity, "LOCATION_UNAVAILABLE", "Location could not be determined", nil)
	case errors.Is(err, timeentry.ErrGeofenceNotConfigured):
		ErrorWithCode(w, http.StatusUnprocessableEntity, "GEOFENCE_NOT_CONFIGURED", "Shop location is not configured", nil)

	// Approval errors
	case errors.Is(err, timeentry.ErrEntryLocked):
		ErrorWithCode(w, http.StatusLocked, "ENTRY_LOCKED", "Time entry is locked", nil)
	case errors.Is(err, timeentry.ErrEntryNotLocked):
		ErrorWithCode(w, http.StatusConflict, "ENTRY_NOT_LOCKED", "Time entry is not locked", nil)
	case errors.Is(err, timeentry.ErrEntryStillOpen):
		ErrorWithCode(w, http.StatusConflict, "ENTRY_STILL_OPEN", "Time entry must be clocked out first", nil)
	case errors.Is(err, timeentry.ErrApproverBlocked):
		Forbidden(w, "Only managers can approve or unlock time entries")

	// General time entry errors
	case errors.Is(err, timeentry.ErrEntryNotFound):
		NotFound(w, "Time entry not found")
	case errors.Is(err, timeentry.ErrUnauthorized):
		Forbidden(w, "You are not allowed to access this time entry")
	case errors.Is(err, timeentry.ErrInvalidBreaks):
		BadRequest(w, "Break intervals are invalid", nil)
	case errors.Is(err, timeentry.ErrInvalidWindow):
		BadRequest(w, "Window end must be after window start", nil)

	// Identity errors
	case errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")
	case errors.Is(err, user.ErrShopIDRequired):
		Unauthorized(w, "Token has no shop")
	case errors.Is(err, user.ErrTechnicianIDRequired):
		Forbidden(w, "Only technicians can use the time clock")

	// Shop and work order errors
	case errors.Is(err, shop.ErrShopNotFound):
		NotFound(w, "Shop not found")
	case errors.Is(err, shop.ErrHourlyRateNotFound):
		ErrorWithCode(w, http.StatusUnprocessableEntity, "HOURLY_RATE_NOT_CONFIGURED", "Hourly rate is not configured", nil)
	case errors.Is(err, workorder.ErrWorkOrderNotFound):
		NotFound(w, "Work order not found")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
