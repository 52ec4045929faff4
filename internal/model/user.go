package model

import "strings"

// Roles understood by the portal.  The backend returns them in lower case.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleOwner    = "owner"
	RoleCashier  = "cashier"
)

// User is the authenticated account as reported by GET /api/user.
//
// Fields:
//  ID    – upstream user id.
//  Name  – display name.
//  Email – login email address.
//  Role  – one of customer, admin, owner or cashier.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// NormalizeRole lower-cases and trims a role string so comparisons against
// the allow-lists are not sensitive to backend formatting ("Kasir " etc).
// The Indonesian "kasir" alias used by the backend maps to cashier.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "kasir" {
		return RoleCashier
	}
	return r
}
