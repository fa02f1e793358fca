package timeentry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/shop"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shopPoint = shop.GeoCoordinate{Latitude: 40.0, Longitude: -75.0}

func enforcedConfig(radius float64) shop.LocationConfig {
	c := shopPoint
	return shop.LocationConfig{ShopID: "shop-1", Coordinate: &c, RadiusMeters: radius, Enforced: true}
}

func TestValidateGeofence_AtShopCoordinate(t *testing.T) {
	reported := shopPoint
	allowed, distance, err := ValidateGeofence(&reported, enforcedConfig(shop.DefaultGeofenceRadiusMeters))

	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0.0, distance)
}

func TestValidateGeofence_NotEnforced(t *testing.T) {
	far := shop.GeoCoordinate{Latitude: 10, Longitude: 10}
	allowed, distance, err := ValidateGeofence(&far, shop.LocationConfig{Enforced: false})

	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0.0, distance)

	allowed, _, err = ValidateGeofence(nil, shop.LocationConfig{Enforced: false})
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestValidateGeofence_Errors(t *testing.T) {
	reported := shopPoint

	_, _, err := ValidateGeofence(&reported, shop.LocationConfig{Enforced: true})
	assert.ErrorIs(t, err, timeentry.ErrGeofenceNotConfigured)

	_, _, err = ValidateGeofence(nil, enforcedConfig(30))
	assert.ErrorIs(t, err, timeentry.ErrLocationUnavailable)
}

func TestValidateGeofence_Boundary(t *testing.T) {
	edge := shop.GeoCoordinate{Latitude: 40.000274, Longitude: -75.0}
	beyond := shop.GeoCoordinate{Latitude: 40.000284, Longitude: -75.0}
	radius := utils.CalculateHaversineDistance(edge.Latitude, edge.Longitude, shopPoint.Latitude, shopPoint.Longitude)

	allowed, distance, err := ValidateGeofence(&edge, enforcedConfig(radius))
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, radius, distance)

	allowed, distance, err = ValidateGeofence(&beyond, enforcedConfig(radius))
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, distance, radius)
}

func TestVerifyLocation_OutOfRangeCarriesDistance(t *testing.T) {
	env := newTestEnv()
	far := shop.GeoCoordinate{Latitude: 40.0005, Longitude: -75.0}

	_, err := env.svc.verifyLocation(context.Background(), enforcedConfig(30.48), reportedLocation{coordinate: &far})

	require.ErrorIs(t, err, timeentry.ErrOutOfRange)
	var oor *timeentry.OutOfRangeError
	require.True(t, errors.As(err, &oor))
	assert.InDelta(t, 55.6, oor.DistanceMeters, 0.5)
	assert.InDelta(t, 30.48, oor.RadiusMeters, 1e-9)
}

func TestVerifyLocation_ReportedFailureIsNotAPass(t *testing.T) {
	env := newTestEnv()
	reason := "permission denied"

	_, err := env.svc.verifyLocation(context.Background(), enforcedConfig(30.48), reportedLocation{failure: &reason})
	assert.ErrorIs(t, err, timeentry.ErrLocationUnavailable)
	assert.ErrorContains(t, err, "permission denied")
}

type slowLocator struct{ delay time.Duration }

func (l slowLocator) Locate(ctx context.Context) (shop.GeoCoordinate, error) {
	select {
	case <-time.After(l.delay):
		return shopPoint, nil
	case <-ctx.Done():
		return shop.GeoCoordinate{}, ctx.Err()
	}
}

type brokenLocator struct{}

func (brokenLocator) Locate(ctx context.Context) (shop.GeoCoordinate, error) {
	return shop.GeoCoordinate{}, errors.New("gps hardware fault")
}

func TestResolveCoordinate(t *testing.T) {
	ctx := context.Background()

	coord, err := ResolveCoordinate(ctx, slowLocator{delay: time.Millisecond}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, shopPoint, coord)

	_, err = ResolveCoordinate(ctx, slowLocator{delay: time.Second}, 10*time.Millisecond)
	assert.ErrorIs(t, err, timeentry.ErrLocationUnavailable)

	_, err = ResolveCoordinate(ctx, brokenLocator{}, time.Second)
	assert.ErrorIs(t, err, timeentry.ErrLocationUnavailable)
	assert.ErrorContains(t, err, "gps hardware fault")
}
