package user

type Role string

const (
	RoleAdmin      Role = "admin"      // Shop owner / platform admin - full access
	RoleManager    Role = "manager"    // Can approve and unlock time entries
	RoleTechnician Role = "technician" // Clocks in and out, edits own entries
)

// Identity is the caller as resolved by the auth collaborator.
// It is passed explicitly into every time & attendance operation.
type Identity struct {
	UserID       string
	TechnicianID string
	ShopID       string
	Role         Role
}

// IsManager checks if the caller is manager or admin
func (i Identity) IsManager() bool {
	return i.Role == RoleManager || i.Role == RoleAdmin
}

// CanApprove checks if the caller can approve or unlock time entries
func (i Identity) CanApprove() bool {
	return HasPermission(i.Role, PermissionTimeEntryApprove)
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTechnician:
		return true
	}
	return false
}
