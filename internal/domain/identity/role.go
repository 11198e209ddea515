package identity

// Role is a coarse permission tier
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
	RoleOwner Role = "owner"
)

// Permission names an action on a resource
type Permission string

const (
	PermReservationRead  Permission = "reservation:read"
	PermReservationWrite Permission = "reservation:write"
	PermPaymentRead      Permission = "payment:read"
	PermPaymentWrite     Permission = "payment:write"
	PermPropertyRead     Permission = "property:read"
	PermPropertyWrite    Permission = "property:write"
	PermUserManage       Permission = "user:manage"
	PermPushRelay        Permission = "push:relay"
	PermExport           Permission = "export:read"
)

var rolePermissions = map[Role][]Permission{
	RoleStaff: {
		PermReservationRead, PermReservationWrite,
		PermPaymentRead, PermPaymentWrite,
		PermPropertyRead,
		PermPushRelay,
		PermExport,
	},
	RoleOwner: {
		PermReservationRead,
		PermPaymentRead,
		PermPropertyRead,
		PermExport,
	},
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleStaff || r == RoleOwner
}

// Can reports whether the role grants perm. Admins hold every permission.
func (r Role) Can(perm Permission) bool {
	if r == RoleAdmin {
		return true
	}
	for _, p := range rolePermissions[r] {
		if p == perm {
			return true
		}
	}
	return false
}
