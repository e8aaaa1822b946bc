package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/store"
)

// UserStore is an in-memory implementation of store.UserStore for development
// and testing.
type UserStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func copyUser(user *models.User) *models.User {
	cp := *user
	if user.LastLoginAt != nil {
		t := *user.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}

// Create creates a new user.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return store.ErrUserAlreadyExists
	}

	cp := copyUser(user)
	cp.Email = email
	s.users[user.ID] = cp
	s.byEmail[email] = user.ID

	return nil
}

// Get retrieves a user by ID regardless of active state.
func (s *UserStore) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	return copyUser(user), nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[strings.ToLower(email)]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	return copyUser(s.users[id]), nil
}

// Update persists role, activity flag, name and last-login changes.
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.users[user.ID]
	if !exists {
		return store.ErrUserNotFound
	}

	delete(s.byEmail, existing.Email)

	cp := copyUser(user)
	cp.Email = strings.ToLower(user.Email)
	s.users[user.ID] = cp
	s.byEmail[cp.Email] = user.ID

	return nil
}

// ListByOrganization returns users of an organization ordered by name.
func (s *UserStore) ListByOrganization(ctx context.Context, orgID uuid.UUID, activeOnly bool) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []*models.User
	for _, user := range s.users {
		if user.OrganizationID != orgID {
			continue
		}
		if activeOnly && !user.IsActive {
			continue
		}
		users = append(users, copyUser(user))
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].FirstName != users[j].FirstName {
			return users[i].FirstName < users[j].FirstName
		}
		return users[i].LastName < users[j].LastName
	})

	return users, nil
}
