package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/store"
)

// InvitationStore implements store.InvitationStore using PostgreSQL.
type InvitationStore struct {
	pool *pgxpool.Pool
}

// NewInvitationStore creates a new PostgreSQL-backed invitation store.
func NewInvitationStore(pool *pgxpool.Pool) *InvitationStore {
	return &InvitationStore{
		pool: pool,
	}
}

const invitationColumns = `invitation_id, org_id, email, role, token, invited_by_id, status, expires_at, created_at`

func scanInvitation(row pgx.Row) (*models.Invitation, error) {
	var inv models.Invitation
	err := row.Scan(
		&inv.ID,
		&inv.OrganizationID,
		&inv.Email,
		&inv.Role,
		&inv.Token,
		&inv.InvitedByID,
		&inv.Status,
		&inv.ExpiresAt,
		&inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create creates a new invitation in the database.
func (s *InvitationStore) Create(ctx context.Context, inv *models.Invitation) error {
	query := `
		INSERT INTO invitations (` + invitationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		inv.ID,
		inv.OrganizationID,
		strings.ToLower(inv.Email),
		inv.Role,
		inv.Token,
		inv.InvitedByID,
		inv.Status,
		inv.ExpiresAt,
		inv.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", describePostgresError(err))
	}

	log.Debug().
		Str("invitation_id", inv.ID.String()).
		Str("email", inv.Email).
		Msg("Created invitation")

	return nil
}

// GetByToken retrieves an invitation by its token.
func (s *InvitationStore) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token = $1`

	inv, err := scanInvitation(s.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", describePostgresError(err))
	}

	return inv, nil
}

// FindPending returns the pending, unexpired invitation for an email.
func (s *InvitationStore) FindPending(ctx context.Context, orgID uuid.UUID, email string) (*models.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE org_id = $1 AND email = $2 AND status = 'PENDING' AND expires_at > $3
	`

	inv, err := scanInvitation(s.pool.QueryRow(ctx, query, orgID, strings.ToLower(email), time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find pending invitation: %w", describePostgresError(err))
	}

	return inv, nil
}

// ListPending returns all pending invitations for an organization.
func (s *InvitationStore) ListPending(ctx context.Context, orgID uuid.UUID) ([]*models.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE org_id = $1 AND status = 'PENDING'
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", describePostgresError(err))
	}
	defer rows.Close()

	var invs []*models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invs = append(invs, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitations: %w", err)
	}

	return invs, nil
}

// UpdateStatus transitions a pending invitation's status.
func (s *InvitationStore) UpdateStatus(ctx context.Context, orgID, invitationID uuid.UUID, status models.InvitationStatus) error {
	query := `
		UPDATE invitations SET status = $3
		WHERE invitation_id = $1 AND org_id = $2 AND status = 'PENDING'
	`

	result, err := s.pool.Exec(ctx, query, invitationID, orgID, status)
	if err != nil {
		return fmt.Errorf("failed to update invitation status: %w", describePostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrInvitationNotFound
	}

	return nil
}
