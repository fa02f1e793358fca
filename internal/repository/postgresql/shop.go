package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/shop"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/database"
)

type shopRepository struct {
	db *database.DB
}

// GetLocationConfig implements shop.ShopRepository.
func (r *shopRepository) GetLocationConfig(ctx context.Context, shopID string) (shop.LocationConfig, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, latitude, longitude, geofence_radius_meters, geofence_enforced
		FROM shops
		WHERE id = $1
	`

	var (
		cfg      shop.LocationConfig
		lat, lon *float64
		radius   *float64
	)
	err := q.QueryRow(ctx, query, shopID).Scan(&cfg.ShopID, &lat, &lon, &radius, &cfg.Enforced)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shop.LocationConfig{}, shop.ErrShopNotFound
		}
		return shop.LocationConfig{}, fmt.Errorf("failed to get shop location: %w", err)
	}

	cfg.Coordinate = toCoordinate(lat, lon)
	if radius != nil {
		cfg.RadiusMeters = *radius
	}
	return cfg, nil
}

// GetPayrollPolicy implements shop.ShopRepository.
func (r *shopRepository) GetPayrollPolicy(ctx context.Context, shopID string) (shop.PayrollPolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, overtime_threshold_hours, overtime_multiplier
		FROM shops
		WHERE id = $1
	`

	var policy shop.PayrollPolicy
	err := q.QueryRow(ctx, query, shopID).Scan(&policy.ShopID, &policy.OvertimeThresholdHours, &policy.OvertimeMultiplier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shop.PayrollPolicy{}, shop.ErrShopNotFound
		}
		return shop.PayrollPolicy{}, fmt.Errorf("failed to get payroll policy: %w", err)
	}
	return policy, nil
}

// GetHourlyRate implements shop.ShopRepository.
func (r *shopRepository) GetHourlyRate(ctx context.Context, technicianID string, shopID string) (float64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT hourly_rate
		FROM technician_rates
		WHERE technician_id = $1 AND shop_id = $2
	`

	var rate float64
	if err := q.QueryRow(ctx, query, technicianID, shopID).Scan(&rate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shop.ErrHourlyRateNotFound
		}
		return 0, fmt.Errorf("failed to get hourly rate: %w", err)
	}
	return rate, nil
}

func NewShopRepository(db *database.DB) shop.ShopRepository {
	return &shopRepository{db: db}
}
