package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level of a user within their organization.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// User is a member of exactly one organization. Users are never hard-deleted;
// removal sets IsActive=false so tasks and standup responses they created keep
// a resolvable author.
type User struct {
	ID             uuid.UUID // UUIDv7
	OrganizationID uuid.UUID
	FirstName      string
	LastName       string
	Email          string // unique, stored lowercase
	PasswordHash   string
	Role           Role
	IsActive       bool
	LastLoginAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullName returns the display name used across the UI payloads.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
