package models

import (
	"time"

	"github.com/google/uuid"
)

// OrganizationSettings holds per-tenant preferences, stored as JSONB on the
// organization row.
type OrganizationSettings struct {
	Timezone         string   `json:"timezone"`
	WorkingDays      []string `json:"workingDays"`
	StandupReminders bool     `json:"standupReminders"`
}

// DefaultOrganizationSettings returns the settings applied at signup.
func DefaultOrganizationSettings() OrganizationSettings {
	return OrganizationSettings{
		Timezone:         "UTC",
		WorkingDays:      []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		StandupReminders: true,
	}
}

// Organization represents a tenant in the system. Every user, project,
// invitation, template and standup belongs to exactly one organization.
type Organization struct {
	ID        uuid.UUID // UUIDv7
	Name      string
	Domain    *string // optional, unique if set
	Settings  OrganizationSettings
	CreatedAt time.Time
	UpdatedAt time.Time
}
