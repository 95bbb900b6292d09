package users

import "time"

// Role gates capabilities such as listing every registered user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	RegisteredAt time.Time
}

// CanListUsers reports whether u may read every registered identifier.
func CanListUsers(u User) bool {
	return u.Role == RoleAdmin
}

// ParseRole accepts "user" or "admin".
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleUser, RoleAdmin:
		return Role(raw), true
	}
	return "", false
}
