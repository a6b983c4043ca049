package rbac

import "strings"

// Role names as the auth service puts them in the authorities claim.
// Keep these stable; they are part of the token contract.
const (
	RoleCustomer   = "ROLE_CUSTOMER"
	RoleSeller     = "ROLE_SELLER"
	RoleAdmin      = "ROLE_ADMIN"
	RoleSuperAdmin = "ROLE_SUPER_ADMIN"
)

const rolePrefix = "ROLE_"

// Normalize maps bare role names (SELLER, super_admin) to their ROLE_ form.
func Normalize(role string) string {
	r := strings.ToUpper(strings.TrimSpace(role))
	if r == "" || strings.HasPrefix(r, rolePrefix) {
		return r
	}
	return rolePrefix + r
}

func IsSuperAdmin(role string) bool { return Normalize(role) == RoleSuperAdmin }

// Dashboard is the UI area a role lands on.
type Dashboard string

const (
	DashboardNone       Dashboard = ""
	DashboardSeller     Dashboard = "seller"
	DashboardAdmin      Dashboard = "admin"
	DashboardSuperAdmin Dashboard = "super-admin"
)

// DashboardFor returns the dashboard for a decoded role. The role comes from
// an unverified token: it decides what to render, never what is allowed.
func DashboardFor(role string) Dashboard {
	switch Normalize(role) {
	case RoleSuperAdmin:
		return DashboardSuperAdmin
	case RoleAdmin:
		return DashboardAdmin
	case RoleSeller:
		return DashboardSeller
	default:
		return DashboardNone
	}
}
