package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectArchived  ProjectStatus = "ARCHIVED"
)

// Project groups targets and standups under an organization. Names are unique
// per organization among non-archived projects; the vision statement is
// required and bounded (10-500 chars).
type Project struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Vision         string
	Description    *string
	Status         ProjectStatus
	CreatorID      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TargetStatus is the lifecycle state of a target.
type TargetStatus string

const (
	TargetActive    TargetStatus = "ACTIVE"
	TargetCompleted TargetStatus = "COMPLETED"
)

// Column is a named stage in a target's workflow. Columns live as an ordered
// JSONB list embedded on the target row, never as their own table; ids are
// only unique within the owning target.
type Column struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	DotColor string `json:"dotColor"`
	Order    int    `json:"order"`
}

// Target is a goal within a project and the aggregate root for a kanban
// board. Invariant: Columns always has at least one entry.
type Target struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Title       string
	Description string
	Status      TargetStatus
	Columns     []Column
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DefaultColumns returns the column set seeded onto every new target.
func DefaultColumns() []Column {
	return []Column{
		{ID: "todo", Name: "To Do", Color: "bg-gray-50", DotColor: "bg-gray-400", Order: 0},
		{ID: "in-progress", Name: "In Progress", Color: "bg-blue-50", DotColor: "bg-blue-400", Order: 1},
		{ID: "done", Name: "Done", Color: "bg-green-50", DotColor: "bg-green-400", Order: 2},
	}
}
