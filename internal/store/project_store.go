package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/models"
)

// Sentinel errors for project store operations
var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrDuplicateProject = errors.New("project name already in use")
)

// ProjectStore defines the interface for project storage operations. All
// reads are scoped by organization id so cross-tenant rows are invisible.
type ProjectStore interface {
	// Create creates a project together with its default standup template in
	// a single transaction. Returns ErrDuplicateProject if a non-archived
	// project with the same name exists in the organization.
	Create(ctx context.Context, project *models.Project, template *models.StandupTemplate) error

	// Get retrieves a project scoped by organization.
	// Returns ErrProjectNotFound outside the organization.
	Get(ctx context.Context, orgID, projectID uuid.UUID) (*models.Project, error)

	// Update persists name, vision, description and status changes.
	// Returns ErrProjectNotFound or ErrDuplicateProject.
	Update(ctx context.Context, project *models.Project) error

	// ListByOrganization returns the organization's projects, newest first.
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Project, error)
}
