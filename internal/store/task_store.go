package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/models"
)

// Sentinel errors for task store operations
var (
	ErrTaskNotFound = errors.New("task not found")
)

// TaskStore defines the interface for task storage operations.
type TaskStore interface {
	// Create creates a new task.
	Create(ctx context.Context, task *models.Task) error

	// Get retrieves a task scoped by organization (via target -> project).
	// Returns ErrTaskNotFound outside the organization.
	Get(ctx context.Context, orgID, taskID uuid.UUID) (*models.Task, error)

	// Update persists column, order, assignee, completion and content
	// changes. Returns ErrTaskNotFound if the task doesn't exist.
	Update(ctx context.Context, task *models.Task) error

	// ListByTarget returns a target's tasks ordered by intra-column order.
	ListByTarget(ctx context.Context, targetID uuid.UUID) ([]*models.Task, error)
}
