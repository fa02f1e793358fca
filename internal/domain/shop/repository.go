package shop

import "context"

// ShopRepository reads shop configuration owned by the onboarding collaborator.
type ShopRepository interface {
	// GetLocationConfig returns the geofence configuration of a shop
	GetLocationConfig(ctx context.Context, shopID string) (LocationConfig, error)

	// GetPayrollPolicy returns overtime overrides for a shop
	GetPayrollPolicy(ctx context.Context, shopID string) (PayrollPolicy, error)

	// GetHourlyRate returns the hourly pay rate of a technician in a shop
	GetHourlyRate(ctx context.Context, technicianID string, shopID string) (float64, error)
}
