package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority orders tasks by urgency.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is a unit of work on a target's board. ColumnID is a soft foreign key
// into the parent target's embedded column list; the store cannot enforce it,
// so every write path validates it through the kanban engine.
type Task struct {
	ID          uuid.UUID
	TargetID    uuid.UUID
	Title       string
	Description *string
	Priority    Priority
	ColumnID    string
	Order       int
	DueDate     *time.Time
	CompletedAt *time.Time
	AssigneeID  *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
