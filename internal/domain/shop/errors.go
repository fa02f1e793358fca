package shop

import "errors"

var (
	ErrShopNotFound       = errors.New("shop not found")
	ErrHourlyRateNotFound = errors.New("hourly rate not configured for technician")
)
