package shop

// DefaultGeofenceRadiusMeters is 100 ft.
const DefaultGeofenceRadiusMeters = 30.48

// GeoCoordinate is a point in decimal degrees.
type GeoCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies within WGS84 bounds.
func (c GeoCoordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// LocationConfig is the shop's registered location and geofence policy.
// Owned by shop configuration; read-only to time & attendance.
type LocationConfig struct {
	ShopID       string
	Coordinate   *GeoCoordinate
	RadiusMeters float64
	Enforced     bool
}

// Radius returns the configured radius, falling back to the default when unset.
func (c LocationConfig) Radius() float64 {
	if c.RadiusMeters <= 0 {
		return DefaultGeofenceRadiusMeters
	}
	return c.RadiusMeters
}

// PayrollPolicy holds per-shop overrides of the overtime rule.
// Nil fields fall back to the application defaults.
type PayrollPolicy struct {
	ShopID                 string
	OvertimeThresholdHours *float64
	OvertimeMultiplier     *float64
}
