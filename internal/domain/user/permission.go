package user

type Permission string

const (
	// Own time entries
	PermissionTimeEntryClock   Permission = "time_entry.clock"
	PermissionTimeEntryViewOwn Permission = "time_entry.view_own"
	PermissionTimeEntryEditOwn Permission = "time_entry.edit_own"

	// Team time entries
	PermissionTimeEntryViewAll Permission = "time_entry.view_all"
	PermissionTimeEntryEditAll Permission = "time_entry.edit_all"
	PermissionTimeEntryApprove Permission = "time_entry.approve"

	// Payroll & reports
	PermissionPayrollViewOwn Permission = "payroll.view_own"
	PermissionPayrollViewAll Permission = "payroll.view_all"
	PermissionReportsView    Permission = "reports.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionTimeEntryClock,
		PermissionTimeEntryViewOwn,
		PermissionTimeEntryEditOwn,
		PermissionTimeEntryViewAll,
		PermissionTimeEntryEditAll,
		PermissionTimeEntryApprove,
		PermissionPayrollViewOwn,
		PermissionPayrollViewAll,
		PermissionReportsView,
	},
	RoleManager: {
		PermissionTimeEntryClock,
		PermissionTimeEntryViewOwn,
		PermissionTimeEntryEditOwn,
		PermissionTimeEntryViewAll,
		PermissionTimeEntryEditAll,
		PermissionTimeEntryApprove,
		PermissionPayrollViewOwn,
		PermissionPayrollViewAll,
		PermissionReportsView,
	},
	RoleTechnician: {
		PermissionTimeEntryClock,
		PermissionTimeEntryViewOwn,
		PermissionTimeEntryEditOwn,
		PermissionPayrollViewOwn,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
