package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/models"
)

// Sentinel errors for target store operations
var (
	ErrTargetNotFound = errors.New("target not found")
)

// TargetStore defines the interface for target storage operations. The
// embedded column list is written wholesale; per-column edits happen in the
// kanban engine, not in the store.
type TargetStore interface {
	// Create creates a new target with its seeded column list.
	Create(ctx context.Context, target *models.Target) error

	// Get retrieves a target scoped by organization (via its project).
	// Returns ErrTargetNotFound outside the organization.
	Get(ctx context.Context, orgID, targetID uuid.UUID) (*models.Target, error)

	// ListByProject returns a project's targets, newest first.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Target, error)

	// ReplaceColumns overwrites the target's column list as a single atomic
	// write. Returns ErrTargetNotFound if the target doesn't exist.
	ReplaceColumns(ctx context.Context, targetID uuid.UUID, columns []models.Column) error

	// ReplaceColumnsReassigningTasks overwrites the column list and moves
	// every task assigned to fromColumnID onto toColumnID in one
	// transaction, so a concurrent board read never observes a task
	// referencing a deleted column.
	ReplaceColumnsReassigningTasks(ctx context.Context, targetID uuid.UUID, columns []models.Column, fromColumnID, toColumnID string) error
}
