package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/models"
)

// Sentinel errors for invitation store operations
var (
	ErrInvitationNotFound = errors.New("invitation not found")
)

// InvitationStore defines the interface for invitation storage operations.
type InvitationStore interface {
	// Create creates a new invitation.
	Create(ctx context.Context, inv *models.Invitation) error

	// GetByToken retrieves an invitation by its opaque token.
	// Returns ErrInvitationNotFound if no invitation has that token.
	GetByToken(ctx context.Context, token string) (*models.Invitation, error)

	// FindPending returns the pending, unexpired invitation for an email in
	// an organization, or ErrInvitationNotFound.
	FindPending(ctx context.Context, orgID uuid.UUID, email string) (*models.Invitation, error)

	// ListPending returns all pending invitations for an organization,
	// newest first.
	ListPending(ctx context.Context, orgID uuid.UUID) ([]*models.Invitation, error)

	// UpdateStatus transitions an invitation's status, scoped by
	// organization. Returns ErrInvitationNotFound if no matching pending
	// invitation exists.
	UpdateStatus(ctx context.Context, orgID, invitationID uuid.UUID, status models.InvitationStatus) error
}
