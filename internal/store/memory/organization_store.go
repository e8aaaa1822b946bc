package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/store"
)

// OrganizationStore is an in-memory implementation of store.OrganizationStore
// for development and testing.
type OrganizationStore struct {
	mu       sync.RWMutex
	orgs     map[uuid.UUID]*models.Organization
	byDomain map[string]uuid.UUID
}

// NewOrganizationStore creates a new in-memory organization store.
func NewOrganizationStore() *OrganizationStore {
	return &OrganizationStore{
		orgs:     make(map[uuid.UUID]*models.Organization),
		byDomain: make(map[string]uuid.UUID),
	}
}

func copyOrganization(org *models.Organization) *models.Organization {
	cp := *org
	cp.Settings.WorkingDays = append([]string(nil), org.Settings.WorkingDays...)
	if org.Domain != nil {
		domain := *org.Domain
		cp.Domain = &domain
	}
	return &cp
}

// Create creates a new organization.
func (s *OrganizationStore) Create(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orgs[org.ID]; exists {
		return store.ErrOrganizationAlreadyExists
	}
	if org.Domain != nil {
		if _, exists := s.byDomain[*org.Domain]; exists {
			return store.ErrOrganizationAlreadyExists
		}
	}

	cp := copyOrganization(org)
	s.orgs[org.ID] = cp
	if org.Domain != nil {
		s.byDomain[*org.Domain] = org.ID
	}

	return nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, exists := s.orgs[orgID]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	return copyOrganization(org), nil
}

// Update updates the name, domain and settings of an organization.
func (s *OrganizationStore) Update(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.orgs[org.ID]
	if !exists {
		return store.ErrOrganizationNotFound
	}

	if existing.Domain != nil {
		delete(s.byDomain, *existing.Domain)
	}

	cp := copyOrganization(org)
	s.orgs[org.ID] = cp
	if org.Domain != nil {
		s.byDomain[*org.Domain] = org.ID
	}

	return nil
}
