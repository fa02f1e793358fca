package timeentry

import (
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/user"
)

// Approve freezes a closed entry. Only roles with the approve capability may
// call it.
func Approve(entry *timeentry.TimeEntry, role user.Role, approverID string, now time.Time) error {
	if !user.HasPermission(role, user.PermissionTimeEntryApprove) {
		return timeentry.ErrApproverBlocked
	}
	if entry.IsOpen() {
		return timeentry.ErrEntryStillOpen
	}
	if entry.Locked {
		return timeentry.ErrEntryLocked
	}

	approvedAt := now
	entry.Approved = true
	entry.Locked = true
	entry.ApprovedBy = &approverID
	entry.ApprovedAt = &approvedAt
	return nil
}

// Unlock reverses the lock so the entry can be corrected. The approved flag
// and approver are kept for the record.
func Unlock(entry *timeentry.TimeEntry, role user.Role) error {
	if !user.HasPermission(role, user.PermissionTimeEntryApprove) {
		return timeentry.ErrApproverBlocked
	}
	if !entry.Locked {
		return timeentry.ErrEntryNotLocked
	}
	entry.Locked = false
	return nil
}
