package auth

// Role represents an authorisation tier for API callers.
type Role string

const (
	// RoleViewer can read device state and history.
	RoleViewer Role = "viewer"

	// RoleOperator can additionally lock and unlock.
	RoleOperator Role = "operator"
)

// ParseRole converts a role name to a Role, or returns ErrInvalidRole.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermDeviceRead    Permission = "device:read"
	PermDeviceOperate Permission = "device:operate"
	PermHistoryRead   Permission = "history:read"
)

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermDeviceRead,
		PermHistoryRead,
	},
	RoleOperator: {
		PermDeviceRead,
		PermDeviceOperate,
		PermHistoryRead,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
