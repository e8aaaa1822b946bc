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

// TargetStore is an in-memory implementation of store.TargetStore for
// development and testing. It references the project store for organization
// scoping and the task store for column-deletion reassignment.
type TargetStore struct {
	mu       sync.RWMutex
	targets  map[uuid.UUID]*models.Target
	projects *ProjectStore
	tasks    *TaskStore
}

// NewTargetStore creates a new in-memory target store.
func NewTargetStore(projects *ProjectStore, tasks *TaskStore) *TargetStore {
	s := &TargetStore{
		targets:  make(map[uuid.UUID]*models.Target),
		projects: projects,
		tasks:    tasks,
	}
	tasks.targets = s
	return s
}

func copyTarget(t *models.Target) *models.Target {
	cp := *t
	cp.Columns = append([]models.Column(nil), t.Columns...)
	return &cp
}

// Create creates a new target with its seeded column list.
func (s *TargetStore) Create(ctx context.Context, target *models.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.targets[target.ID] = copyTarget(target)

	return nil
}

// Get retrieves a target scoped by organization via its project.
func (s *TargetStore) Get(ctx context.Context, orgID, targetID uuid.UUID) (*models.Target, error) {
	s.mu.RLock()
	target, exists := s.targets[targetID]
	if !exists {
		s.mu.RUnlock()
		return nil, store.ErrTargetNotFound
	}
	cp := copyTarget(target)
	s.mu.RUnlock()

	owner, ok := s.projects.orgOf(cp.ProjectID)
	if !ok || owner != orgID {
		return nil, store.ErrTargetNotFound
	}

	return cp, nil
}

// ListByProject returns a project's targets, newest first.
func (s *TargetStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var targets []*models.Target
	for _, t := range s.targets {
		if t.ProjectID == projectID {
			targets = append(targets, copyTarget(t))
		}
	}

	sort.Slice(targets, func(i, j int) bool {
		return targets[i].CreatedAt.After(targets[j].CreatedAt)
	})

	return targets, nil
}

// ReplaceColumns overwrites the target's column list as one atomic write.
func (s *TargetStore) ReplaceColumns(ctx context.Context, targetID uuid.UUID, columns []models.Column) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, exists := s.targets[targetID]
	if !exists {
		return store.ErrTargetNotFound
	}

	target.Columns = append([]models.Column(nil), columns...)
	target.UpdatedAt = time.Now()

	return nil
}

// ReplaceColumnsReassigningTasks overwrites the column list and moves every
// task on fromColumnID to toColumnID under both stores' locks, so no reader
// observes a task referencing a deleted column.
func (s *TargetStore) ReplaceColumnsReassigningTasks(ctx context.Context, targetID uuid.UUID, columns []models.Column, fromColumnID, toColumnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, exists := s.targets[targetID]
	if !exists {
		return store.ErrTargetNotFound
	}

	// Lock order is always targets then tasks.
	s.tasks.mu.Lock()
	defer s.tasks.mu.Unlock()

	target.Columns = append([]models.Column(nil), columns...)
	target.UpdatedAt = time.Now()

	now := time.Now()
	for _, task := range s.tasks.tasks {
		if task.TargetID == targetID && task.ColumnID == fromColumnID {
			task.ColumnID = toColumnID
			task.UpdatedAt = now
		}
	}

	return nil
}

// orgOf reports which organization owns a target, via its project.
func (s *TargetStore) orgOf(targetID uuid.UUID) (uuid.UUID, bool) {
	s.mu.RLock()
	target, exists := s.targets[targetID]
	if !exists {
		s.mu.RUnlock()
		return uuid.Nil, false
	}
	projectID := target.ProjectID
	s.mu.RUnlock()

	return s.projects.orgOf(projectID)
}
