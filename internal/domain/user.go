package domain

import "time"

// UserRole enumerates the roles a user can hold inside an organization.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SuperAdmin"
	RoleAdmin      UserRole = "Admin"
	RoleSupport    UserRole = "Support"
	RoleUser       UserRole = "User"
)

// User is the domain model for every account: requesters, support members,
// org admins and the super-admin tier share one table distinguished by role.
type User struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	Role           UserRole
	OrganizationID string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Principal is the authenticated actor behind a request. It is built once
// by the auth middleware and passed explicitly into every core operation.
type Principal struct {
	UserID         string
	Name           string
	Email          string
	Role           UserRole
	OrganizationID string
}

// IsStaff reports whether the principal may mutate lifecycle fields.
func (p Principal) IsStaff() bool {
	return p.Role == RoleAdmin || p.Role == RoleSupport
}
