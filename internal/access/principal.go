package access

import "strings"

// Roles recognized for request authorization.
const (
	RoleProxyAdmin = "proxy_admin"
	RoleInternal   = "internal_user"
)

// Principal identifies who performs an operation.
type Principal struct {
	UserID string
	Role   string
}

// SystemPrincipal returns the synthetic identity used for startup seeding.
func SystemPrincipal(systemID string) Principal {
	id := strings.TrimSpace(systemID)
	return Principal{
		UserID: id,
		Role:   RoleProxyAdmin,
	}
}

// AuditID returns the value written to created_by/updated_by columns.
func (p Principal) AuditID() string {
	return p.UserID
}

// IsAdmin reports whether the principal may manage models.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleProxyAdmin
}
