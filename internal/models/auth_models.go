package models

import "time"

// Farm staff roles. Stored as plain text on the user record.
const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleWorker  = "Worker"
)

// User represents a farm staff account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // '-' means don't send in JSON response
	FullName     *string   `json:"full_name,omitempty" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsValidRole reports whether name is one of the known staff roles.
func IsValidRole(name string) bool {
	switch name {
	case RoleAdmin, RoleManager, RoleWorker:
		return true
	}
	return false
}
