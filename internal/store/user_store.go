package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/models"
)

// Sentinel errors for user store operations
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserStore defines the interface for user storage operations. Users belong
// to exactly one organization; deactivation is a soft delete.
type UserStore interface {
	// Create creates a new user.
	// Returns ErrUserAlreadyExists if the email is already taken.
	Create(ctx context.Context, user *models.User) error

	// Get retrieves a user by ID regardless of active state.
	// Returns ErrUserNotFound if the user doesn't exist.
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by lowercase email.
	// Returns ErrUserNotFound if no user has that email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Update persists role, activity flag, name and last-login changes.
	// Returns ErrUserNotFound if the user doesn't exist.
	Update(ctx context.Context, user *models.User) error

	// ListByOrganization returns users of an organization ordered by name.
	// When activeOnly is set, deactivated members are omitted.
	ListByOrganization(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]*models.User, error)
}
