package models

// Identity is the authenticated caller as reported by the identity provider
type Identity struct {
	UserID string   `json:"userId"`
	Name   string   `json:"name,omitempty"`
	Role   UserRole `json:"role"`
}

// IsAdmin reports whether the identity may manage content
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == UserRoleAdmin
}

// UserRole represents user roles
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)
