package ledger

import "strings"

// Role is the permission level of the operator.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
	RoleGuest Role = "guest"
)

// ParseRole maps a token to a Role. Anything unrecognised is a guest.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleStaff:
		return RoleStaff
	}
	return RoleGuest
}

// CanAdjust reports whether the role may add products and change quantities.
func (r Role) CanAdjust() bool {
	return r == RoleAdmin || r == RoleStaff
}

// CanArchive reports whether the role may archive or permanently delete products.
func (r Role) CanArchive() bool {
	return r == RoleAdmin
}
