package domain

import "time"

// Role is the capability a user acts with.
type Role string

const (
	RoleRider  Role = "RIDER"
	RoleDriver Role = "DRIVER"
	RoleAdmin  Role = "ADMIN"
)

// User represents a registered identity.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Approved     bool
	CreatedAt    time.Time
}

// CanLogin reports whether the user passed the approval gate.
// Only drivers wait for an administrator.
func (u *User) CanLogin() bool {
	return u.Role != RoleDriver || u.Approved
}
