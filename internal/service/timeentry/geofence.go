package timeentry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/shop"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/utils"
)

// DefaultLocationTimeout matches observed device GPS latency.
const DefaultLocationTimeout = 10 * time.Second

// ValidateGeofence decides whether a clock event at reported may proceed.
// When the shop does not enforce geofencing the event is always allowed and
// no distance is computed.
func ValidateGeofence(reported *shop.GeoCoordinate, cfg shop.LocationConfig) (bool, float64, error) {
	if !cfg.Enforced {
		return true, 0, nil
	}
	if cfg.Coordinate == nil {
		return false, 0, timeentry.ErrGeofenceNotConfigured
	}
	if reported == nil {
		return false, 0, timeentry.ErrLocationUnavailable
	}

	distance := utils.CalculateHaversineDistance(
		reported.Latitude, reported.Longitude,
		cfg.Coordinate.Latitude, cfg.Coordinate.Longitude,
	)
	return distance <= cfg.Radius(), distance, nil
}

// Locator produces the device coordinate for a clock event. Implementations
// may be slow or fail.
type Locator interface {
	Locate(ctx context.Context) (shop.GeoCoordinate, error)
}

// ResolveCoordinate asks the locator for a coordinate, bounded by timeout.
// Timeouts and locator failures are reported as ErrLocationUnavailable.
func ResolveCoordinate(ctx context.Context, locator Locator, timeout time.Duration) (shop.GeoCoordinate, error) {
	if timeout <= 0 {
		timeout = DefaultLocationTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		coord shop.GeoCoordinate
		err   error
	}
	done := make(chan result, 1)
	go func() {
		c, err := locator.Locate(ctx)
		done <- result{c, err}
	}()

	select {
	case <-ctx.Done():
		return shop.GeoCoordinate{}, fmt.Errorf("%w: %v", timeentry.ErrLocationUnavailable, ctx.Err())
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, timeentry.ErrLocationUnavailable) {
				return shop.GeoCoordinate{}, r.err
			}
			return shop.GeoCoordinate{}, fmt.Errorf("%w: %v", timeentry.ErrLocationUnavailable, r.err)
		}
		if !r.coord.Valid() {
			return shop.GeoCoordinate{}, fmt.Errorf("%w: coordinate out of bounds", timeentry.ErrLocationUnavailable)
		}
		return r.coord, nil
	}
}

// reportedLocation is the Locator for a coordinate already carried by the
// request, or the device-side failure the client reported instead.
type reportedLocation struct {
	coordinate *shop.GeoCoordinate
	failure    *string
}

func (r reportedLocation) Locate(ctx context.Context) (shop.GeoCoordinate, error) {
	if r.coordinate != nil {
		return *r.coordinate, nil
	}
	if r.failure != nil && *r.failure != "" {
		return shop.GeoCoordinate{}, fmt.Errorf("%w: %s", timeentry.ErrLocationUnavailable, *r.failure)
	}
	return shop.GeoCoordinate{}, fmt.Errorf("%w: no coordinate reported", timeentry.ErrLocationUnavailable)
}

// geofenceCheck is the outcome of verifying a clock event's location.
type geofenceCheck struct {
	coordinate *shop.GeoCoordinate
	distance   *float64
}

// verifyLocation runs the full geofence gate for a clock event: resolve the
// coordinate when enforcement requires one, then validate it.
func (s *TimeEntryServiceImpl) verifyLocation(ctx context.Context, cfg shop.LocationConfig, loc reportedLocation) (geofenceCheck, error) {
	if !cfg.Enforced {
		return geofenceCheck{coordinate: loc.coordinate}, nil
	}
	if cfg.Coordinate == nil {
		return geofenceCheck{}, timeentry.ErrGeofenceNotConfigured
	}

	coord, err := ResolveCoordinate(ctx, loc, s.locationTimeout)
	if err != nil {
		return geofenceCheck{}, err
	}

	allowed, distance, err := ValidateGeofence(&coord, cfg)
	if err != nil {
		return geofenceCheck{}, err
	}
	if !allowed {
		return geofenceCheck{}, &timeentry.OutOfRangeError{DistanceMeters: distance, RadiusMeters: cfg.Radius()}
	}
	return geofenceCheck{coordinate: &coord, distance: &distance}, nil
}
