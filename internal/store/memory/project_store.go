package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/store"
)

// ProjectStore is an in-memory implementation of store.ProjectStore for
// development and testing. It holds a reference to the standup store so
// project creation can insert the default template in the same critical
// section, matching the transactional behaviour of the PostgreSQL store.
type ProjectStore struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]*models.Project
	standups *StandupStore
}

// NewProjectStore creates a new in-memory project store.
func NewProjectStore(standups *StandupStore) *ProjectStore {
	return &ProjectStore{
		projects: make(map[uuid.UUID]*models.Project),
		standups: standups,
	}
}

func copyProject(p *models.Project) *models.Project {
	cp := *p
	if p.Description != nil {
		d := *p.Description
		cp.Description = &d
	}
	return &cp
}

func (s *ProjectStore) nameTakenLocked(orgID uuid.UUID, name string, excludeID uuid.UUID) bool {
	for _, p := range s.projects {
		if p.ID == excludeID {
			continue
		}
		if p.OrganizationID == orgID && p.Name == name && p.Status != models.ProjectArchived {
			return true
		}
	}
	return false
}

// Create creates a project together with its default standup template.
func (s *ProjectStore) Create(ctx context.Context, project *models.Project, template *models.StandupTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTakenLocked(project.OrganizationID, project.Name, uuid.Nil) {
		return store.ErrDuplicateProject
	}

	s.projects[project.ID] = copyProject(project)

	s.standups.mu.Lock()
	s.standups.insertTemplateLocked(template)
	s.standups.mu.Unlock()

	return nil
}

// Get retrieves a project scoped by organization.
func (s *ProjectStore) Get(ctx context.Context, orgID, projectID uuid.UUID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.projects[projectID]
	if !exists || p.OrganizationID != orgID {
		return nil, store.ErrProjectNotFound
	}

	return copyProject(p), nil
}

// Update persists name, vision, description and status changes.
func (s *ProjectStore) Update(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.projects[project.ID]
	if !exists || existing.OrganizationID != project.OrganizationID {
		return store.ErrProjectNotFound
	}

	if project.Status != models.ProjectArchived &&
		s.nameTakenLocked(project.OrganizationID, project.Name, project.ID) {
		return store.ErrDuplicateProject
	}

	cp := copyProject(project)
	cp.UpdatedAt = time.Now()
	s.projects[project.ID] = cp

	return nil
}

// ListByOrganization returns the organization's projects, newest first.
func (s *ProjectStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var projects []*models.Project
	for _, p := range s.projects {
		if p.OrganizationID == orgID {
			projects = append(projects, copyProject(p))
		}
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})

	return projects, nil
}

// orgOf reports which organization owns a project.
func (s *ProjectStore) orgOf(projectID uuid.UUID) (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.projects[projectID]
	if !exists {
		return uuid.Nil, false
	}
	return p.OrganizationID, true
}
