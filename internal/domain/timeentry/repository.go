package timeentry

import (
	"context"
	"time"
)

// TimeEntryRepository defines data access methods for time entries.
// All lookups are scoped by shopID to prevent cross-tenant access.
// Create must enforce at most one open entry per technician and return
// ErrAlreadyClockedIn when that would be violated.
type TimeEntryRepository interface {
	// Create inserts a new open time entry
	Create(ctx context.Context, entry TimeEntry) (TimeEntry, error)

	// Update overwrites the mutable columns of an existing entry
	Update(ctx context.Context, entry TimeEntry) error

	// GetByID retrieves an entry by ID. Use LockByID inside a transaction for read-modify-write.
	GetByID(ctx context.Context, id string, shopID string) (TimeEntry, error)
	LockByID(ctx context.Context, id string, shopID string) (TimeEntry, error)

	// GetOpenByTechnician returns the single open entry or ErrEntryNotFound.
	GetOpenByTechnician(ctx context.Context, technicianID string, shopID string) (TimeEntry, error)
	LockOpenByTechnician(ctx context.Context, technicianID string, shopID string) (TimeEntry, error)

	// HasOpenEntry reports an open entry of the technician in any shop, the
	// same scope the one-open-entry constraint covers.
	HasOpenEntry(ctx context.Context, technicianID string) (bool, error)

	// ListByTechnician returns entries whose clock-in falls in the window, oldest first
	ListByTechnician(ctx context.Context, technicianID string, shopID string, window Window) ([]TimeEntry, error)

	// ListByShop returns all entries of a shop whose clock-in falls in the window
	ListByShop(ctx context.Context, shopID string, window Window) ([]TimeEntry, error)

	// ListStaleOpen returns open entries clocked in before the cutoff that are not yet flagged
	ListStaleOpen(ctx context.Context, clockedInBefore time.Time) ([]TimeEntry, error)
}

// Transactor runs fn atomically. Repository calls made with the context
// passed to fn join the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
