// internal/domain/models/role.go
package models

// Role is the authorization role stored on a profile.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether r is one of the roles an admin may assign.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}
