package auth

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermCreateUser    Permission = "create_user"
	PermDeleteUser    Permission = "delete_user"
	PermViewUsers     Permission = "view_users"
	PermViewAuditLogs Permission = "view_audit_logs"
)

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleUser: {},
	RoleModerator: {
		PermViewUsers,
	},
	RoleAdmin: {
		PermViewUsers,
		PermCreateUser,
		PermDeleteUser,
		PermViewAuditLogs,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// HasAllPermissions returns true if the role holds every permission in
// required. AND semantics: a single missing permission fails the check.
// An empty required set always passes.
func HasAllPermissions(role Role, required []Permission) bool {
	for _, perm := range required {
		if !HasPermission(role, perm) {
			return false
		}
	}
	return true
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}
