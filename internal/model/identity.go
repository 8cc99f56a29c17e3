package model

// Role is the access level of an authenticated caller.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMerchant Role = "merchant"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMerchant, RoleCustomer:
		return true
	}
	return false
}

// Identity is the authenticated caller. Subject is the user ID and doubles
// as the redeemer ID and, for merchants, the merchant ID.
type Identity struct {
	Subject string
	Role    Role
}

// IsAdmin reports whether the caller has the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
