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

// TaskStore is an in-memory implementation of store.TaskStore for development
// and testing. The targets reference is set when the target store is built
// and is used for organization scoping.
type TaskStore struct {
	mu      sync.RWMutex
	tasks   map[uuid.UUID]*models.Task
	targets *TargetStore
}

// NewTaskStore creates a new in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[uuid.UUID]*models.Task),
	}
}

func copyTask(t *models.Task) *models.Task {
	cp := *t
	if t.Description != nil {
		d := *t.Description
		cp.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		cp.DueDate = &d
	}
	if t.CompletedAt != nil {
		d := *t.CompletedAt
		cp.CompletedAt = &d
	}
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		cp.AssigneeID = &id
	}
	return &cp
}

// Create creates a new task.
func (s *TaskStore) Create(ctx context.Context, task *models.Task) error {
	if _, ok := s.targets.orgOf(task.TargetID); !ok {
		return store.ErrTargetNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[task.ID] = copyTask(task)

	return nil
}

// Get retrieves a task scoped by organization via target -> project.
func (s *TaskStore) Get(ctx context.Context, orgID, taskID uuid.UUID) (*models.Task, error) {
	s.mu.RLock()
	task, exists := s.tasks[taskID]
	if !exists {
		s.mu.RUnlock()
		return nil, store.ErrTaskNotFound
	}
	cp := copyTask(task)
	s.mu.RUnlock()

	owner, ok := s.targets.orgOf(cp.TargetID)
	if !ok || owner != orgID {
		return nil, store.ErrTaskNotFound
	}

	return cp, nil
}

// Update persists column, order, assignee, completion and content changes.
func (s *TaskStore) Update(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; !exists {
		return store.ErrTaskNotFound
	}

	cp := copyTask(task)
	cp.UpdatedAt = time.Now()
	s.tasks[task.ID] = cp

	return nil
}

// ListByTarget returns a target's tasks ordered by intra-column order.
func (s *TaskStore) ListByTarget(ctx context.Context, targetID uuid.UUID) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*models.Task
	for _, t := range s.tasks {
		if t.TargetID == targetID {
			tasks = append(tasks, copyTask(t))
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Order != tasks[j].Order {
			return tasks[i].Order < tasks[j].Order
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	return tasks, nil
}
