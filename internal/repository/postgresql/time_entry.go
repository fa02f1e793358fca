package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/shop"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/database"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/validator"
)

const (
	uniqueViolation        = "23505"
	openEntryPerTechnician = "time_entries_one_open_per_technician"
)

const timeEntryColumns = `
	id, technician_id, shop_id, clock_in, clock_out, breaks,
	work_order_id, notes, hours_worked,
	clock_in_latitude, clock_in_longitude, clock_out_latitude, clock_out_longitude,
	approved, locked, approved_by, approved_at,
	needs_review, review_reason, created_at, updated_at`

type timeEntryRepository struct {
	db *database.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTimeEntry(row rowScanner) (timeentry.TimeEntry, error) {
	var (
		e              timeentry.TimeEntry
		breaks         []byte
		inLat, inLon   *float64
		outLat, outLon *float64
	)
	err := row.Scan(
		&e.ID, &e.TechnicianID, &e.ShopID, &e.ClockIn, &e.ClockOut, &breaks,
		&e.WorkOrderID, &e.Notes, &e.HoursWorked,
		&inLat, &inLon, &outLat, &outLon,
		&e.Approved, &e.Locked, &e.ApprovedBy, &e.ApprovedAt,
		&e.NeedsReview, &e.ReviewReason, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return timeentry.TimeEntry{}, err
	}

	e.Breaks = timeentry.BreakLedger{}
	if len(breaks) > 0 {
		if err := json.Unmarshal(breaks, &e.Breaks); err != nil {
			return timeentry.TimeEntry{}, fmt.Errorf("failed to decode breaks of time entry %s: %w", e.ID, err)
		}
	}
	e.ClockInCoordinate = toCoordinate(inLat, inLon)
	e.ClockOutCoordinate = toCoordinate(outLat, outLon)
	return e, nil
}

func toCoordinate(lat, lon *float64) *shop.GeoCoordinate {
	if lat == nil || lon == nil {
		return nil
	}
	return &shop.GeoCoordinate{Latitude: *lat, Longitude: *lon}
}

func fromCoordinate(c *shop.GeoCoordinate) (*float64, *float64) {
	if c == nil {
		return nil, nil
	}
	lat, lon := c.Latitude, c.Longitude
	return &lat, &lon
}

func encodeBreaks(l timeentry.BreakLedger) ([]byte, error) {
	if l == nil {
		l = timeentry.BreakLedger{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to encode breaks: %w", err)
	}
	return data, nil
}

// Create implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) Create(ctx context.Context, entry timeentry.TimeEntry) (timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	breaks, err := encodeBreaks(entry.Breaks)
	if err != nil {
		return timeentry.TimeEntry{}, err
	}
	inLat, inLon := fromCoordinate(entry.ClockInCoordinate)

	query := `
		INSERT INTO time_entries (
			id, technician_id, shop_id, clock_in, breaks,
			work_order_id, notes, clock_in_latitude, clock_in_longitude,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		) RETURNING ` + timeEntryColumns

	created, err := scanTimeEntry(q.QueryRow(ctx, query,
		entry.ID,
		entry.TechnicianID,
		entry.ShopID,
		entry.ClockIn,
		breaks,
		entry.WorkOrderID,
		entry.Notes,
		inLat,
		inLon,
		entry.CreatedAt,
		entry.UpdatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == openEntryPerTechnician {
			return timeentry.TimeEntry{}, timeentry.ErrAlreadyClockedIn
		}
		return timeentry.TimeEntry{}, fmt.Errorf("failed to create time entry: %w", err)
	}

	return created, nil
}

// Update implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) Update(ctx context.Context, entry timeentry.TimeEntry) error {
	q := GetQuerier(ctx, r.db)

	breaks, err := encodeBreaks(entry.Breaks)
	if err != nil {
		return err
	}
	outLat, outLon := fromCoordinate(entry.ClockOutCoordinate)

	query := `
		UPDATE time_entries SET
			clock_out = $3,
			breaks = $4,
			work_order_id = $5,
			notes = $6,
			hours_worked = $7,
			clock_out_latitude = $8,
			clock_out_longitude = $9,
			approved = $10,
			locked = $11,
			approved_by = $12,
			approved_at = $13,
			needs_review = $14,
			review_reason = $15,
			updated_at = $16
		WHERE id = $1 AND shop_id = $2
	`

	tag, err := q.Exec(ctx, query,
		entry.ID,
		entry.ShopID,
		entry.ClockOut,
		breaks,
		entry.WorkOrderID,
		entry.Notes,
		entry.HoursWorked,
		outLat,
		outLon,
		entry.Approved,
		entry.Locked,
		entry.ApprovedBy,
		entry.ApprovedAt,
		entry.NeedsReview,
		entry.ReviewReason,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update time entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return timeentry.ErrEntryNotFound
	}
	return nil
}

func (r *timeEntryRepository) getOne(ctx context.Context, query string, args ...any) (timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	entry, err := scanTimeEntry(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timeentry.TimeEntry{}, timeentry.ErrEntryNotFound
		}
		return timeentry.TimeEntry{}, fmt.Errorf("failed to get time entry: %w", err)
	}
	return entry, nil
}

// GetByID implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) GetByID(ctx context.Context, id string, shopID string) (timeentry.TimeEntry, error) {
	if !validator.IsValidUUID(id) {
		return timeentry.TimeEntry{}, timeentry.ErrEntryNotFound
	}
	return r.getOne(ctx, `SELECT `+timeEntryColumns+` FROM time_entries WHERE id = $1 AND shop_id = $2`, id, shopID)
}

// LockByID implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) LockByID(ctx context.Context, id string, shopID string) (timeentry.TimeEntry, error) {
	if !validator.IsValidUUID(id) {
		return timeentry.TimeEntry{}, timeentry.ErrEntryNotFound
	}
	return r.getOne(ctx, `SELECT `+timeEntryColumns+` FROM time_entries WHERE id = $1 AND shop_id = $2 FOR UPDATE`, id, shopID)
}

// GetOpenByTechnician implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) GetOpenByTechnician(ctx context.Context, technicianID string, shopID string) (timeentry.TimeEntry, error) {
	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE technician_id = $1
		  AND shop_id = $2
		  AND clock_out IS NULL
	`
	return r.getOne(ctx, query, technicianID, shopID)
}

// LockOpenByTechnician implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) LockOpenByTechnician(ctx context.Context, technicianID string, shopID string) (timeentry.TimeEntry, error) {
	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE technician_id = $1
		  AND shop_id = $2
		  AND clock_out IS NULL
		FOR UPDATE
	`
	return r.getOne(ctx, query, technicianID, shopID)
}

// HasOpenEntry implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) HasOpenEntry(ctx context.Context, technicianID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM time_entries
			WHERE technician_id = $1 AND clock_out IS NULL
		)
	`, technicianID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check open time entry: %w", err)
	}
	return exists, nil
}

func (r *timeEntryRepository) list(ctx context.Context, query string, args ...any) ([]timeentry.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var entries []timeentry.TimeEntry
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating time entries: %w", err)
	}
	return entries, nil
}

// ListByTechnician implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) ListByTechnician(ctx context.Context, technicianID string, shopID string, window timeentry.Window) ([]timeentry.TimeEntry, error) {
	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE technician_id = $1
		  AND shop_id = $2
		  AND clock_in >= $3
		  AND clock_in < $4
		ORDER BY clock_in ASC
	`
	return r.list(ctx, query, technicianID, shopID, window.From, window.To)
}

// ListByShop implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) ListByShop(ctx context.Context, shopID string, window timeentry.Window) ([]timeentry.TimeEntry, error) {
	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE shop_id = $1
		  AND clock_in >= $2
		  AND clock_in < $3
		ORDER BY technician_id ASC, clock_in ASC
	`
	return r.list(ctx, query, shopID, window.From, window.To)
}

// ListStaleOpen implements timeentry.TimeEntryRepository.
func (r *timeEntryRepository) ListStaleOpen(ctx context.Context, clockedInBefore time.Time) ([]timeentry.TimeEntry, error) {
	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE clock_out IS NULL
		  AND needs_review = FALSE
		  AND clock_in < $1
		ORDER BY clock_in ASC
	`
	return r.list(ctx, query, clockedInBefore)
}

func NewTimeEntryRepository(db *database.DB) timeentry.TimeEntryRepository {
	return &timeEntryRepository{db: db}
}
