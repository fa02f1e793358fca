package user

import "errors"

var (
	ErrManagerAccessRequired   = errors.New("manager access required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrShopIDRequired          = errors.New("shop ID is required")
	ErrTechnicianIDRequired    = errors.New("technician ID is required")
	ErrInvalidRole             = errors.New("invalid role")
)
