package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent     UserRole = "student"
	RoleTeacher     UserRole = "teacher"
	RoleParent      UserRole = "parent"
	RoleSchoolAdmin UserRole = "school_admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleParent, RoleSchoolAdmin:
		return true
	default:
		return false
	}
}

// User is the identity record shared by every role, stored under Users/{userId}.
type User struct {
	ID           string    `json:"userId"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password"`
	Role         UserRole  `json:"role"`
	IsActive     bool      `json:"isActive"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Parent links a parent user to the students they follow. Children is keyed by Students row key.
type Parent struct {
	ID        string          `json:"-"`
	UserID    string          `json:"userId"`
	Children  map[string]bool `json:"children,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// SchoolAdmin is the role row for school administrators.
type SchoolAdmin struct {
	ID           string    `json:"adminId"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
