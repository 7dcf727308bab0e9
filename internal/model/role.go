package model

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

var Roles = []Role{RoleAdmin, RoleSeller, RoleBuyer}

// ParseRole maps a stored role value onto the closed set.
// Missing or unknown values become RoleBuyer.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSeller:
		return RoleSeller
	case RoleBuyer:
		return RoleBuyer
	default:
		return RoleBuyer
	}
}

// Valid reports whether r is exactly one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleBuyer:
		return true
	default:
		return false
	}
}
