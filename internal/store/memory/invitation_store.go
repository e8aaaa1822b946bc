package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/store"
)

// InvitationStore is an in-memory implementation of store.InvitationStore for
// development and testing.
type InvitationStore struct {
	mu          sync.RWMutex
	invitations map[uuid.UUID]*models.Invitation
	byToken     map[string]uuid.UUID
}

// NewInvitationStore creates a new in-memory invitation store.
func NewInvitationStore() *InvitationStore {
	return &InvitationStore{
		invitations: make(map[uuid.UUID]*models.Invitation),
		byToken:     make(map[string]uuid.UUID),
	}
}

func copyInvitation(inv *models.Invitation) *models.Invitation {
	cp := *inv
	return &cp
}

// Create creates a new invitation.
func (s *InvitationStore) Create(ctx context.Context, inv *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := copyInvitation(inv)
	cp.Email = strings.ToLower(inv.Email)
	s.invitations[inv.ID] = cp
	s.byToken[inv.Token] = inv.ID

	return nil
}

// GetByToken retrieves an invitation by its opaque token.
func (s *InvitationStore) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byToken[token]
	if !exists {
		return nil, store.ErrInvitationNotFound
	}

	return copyInvitation(s.invitations[id]), nil
}

// FindPending returns the pending, unexpired invitation for an email.
func (s *InvitationStore) FindPending(ctx context.Context, orgID uuid.UUID, email string) (*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	now := time.Now()
	for _, inv := range s.invitations {
		if inv.OrganizationID == orgID && inv.Email == email &&
			inv.Status == models.InvitationPending && inv.ExpiresAt.After(now) {
			return copyInvitation(inv), nil
		}
	}

	return nil, store.ErrInvitationNotFound
}

// ListPending returns all pending invitations for an organization, newest
// first.
func (s *InvitationStore) ListPending(ctx context.Context, orgID uuid.UUID) ([]*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var invs []*models.Invitation
	for _, inv := range s.invitations {
		if inv.OrganizationID == orgID && inv.Status == models.InvitationPending {
			invs = append(invs, copyInvitation(inv))
		}
	}

	sort.Slice(invs, func(i, j int) bool {
		return invs[i].CreatedAt.After(invs[j].CreatedAt)
	})

	return invs, nil
}

// UpdateStatus transitions a pending invitation's status.
func (s *InvitationStore) UpdateStatus(ctx context.Context, orgID, invitationID uuid.UUID, status models.InvitationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, exists := s.invitations[invitationID]
	if !exists || inv.OrganizationID != orgID || inv.Status != models.InvitationPending {
		return store.ErrInvitationNotFound
	}

	inv.Status = status

	return nil
}
