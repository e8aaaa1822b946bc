// Package kanban owns the column list and task placement for a target's
// board. Columns live as an embedded ordered list on the target, tasks
// reference them by a soft foreign key, so every write path funnels through
// the column-resolution helpers here.
package kanban

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/standflow/standflow/internal/auth"
	"github.com/standflow/standflow/internal/errs"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/store"
)

const (
	minColumnNameLen = 1
	maxColumnNameLen = 50
	minTaskTitleLen  = 3
	maxTaskTitleLen  = 100

	defaultColumnColor    = "bg-gray-50"
	defaultColumnDotColor = "bg-gray-400"

	// doneColumnID is the seeded terminal column; moving a task there stamps
	// its completion time.
	doneColumnID = "done"
)

// Engine coordinates column and task state for targets.
type Engine struct {
	targets store.TargetStore
	tasks   store.TaskStore
	users   store.UserStore
}

// NewEngine creates a kanban engine over the given stores.
func NewEngine(targets store.TargetStore, tasks store.TaskStore, users store.UserStore) *Engine {
	return &Engine{
		targets: targets,
		tasks:   tasks,
		users:   users,
	}
}

// Assignee is the resolved user a board task points at.
type Assignee struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// BoardTask is a task expanded for board rendering.
type BoardTask struct {
	Task     *models.Task
	Assignee *Assignee
}

// Board is the full state of a target's kanban board.
type Board struct {
	Target  *models.Target
	Columns []models.Column
	Tasks   []*BoardTask
}

// newColumnID generates a column id unique within the process. Ids are only
// ever resolved against a single target's column list, so time plus a random
// suffix is enough.
func newColumnID() string {
	return fmt.Sprintf("column_%d_%06x", time.Now().UnixMilli(), rand.Uint32N(1<<24))
}

// sortColumns orders columns by order ascending with a stable tie-break on
// list position, so repeated reads always present the same sequence.
func sortColumns(columns []models.Column) {
	sort.SliceStable(columns, func(i, j int) bool {
		return columns[i].Order < columns[j].Order
	})
}

// findColumn returns the index of the column with the given id, or -1.
func findColumn(columns []models.Column, columnID string) int {
	for i, c := range columns {
		if c.ID == columnID {
			return i
		}
	}
	return -1
}

func (e *Engine) getTarget(ctx context.Context, p *auth.Principal, targetID uuid.UUID) (*models.Target, error) {
	target, err := e.targets.Get(ctx, p.OrganizationID, targetID)
	if err != nil {
		if errors.Is(err, store.ErrTargetNotFound) {
			return nil, errs.NotFound("target")
		}
		return nil, errs.Unexpected(err)
	}
	return target, nil
}

// GetBoard returns the target's columns sorted by order and its tasks with
// resolved assignees. Read-only.
func (e *Engine) GetBoard(ctx context.Context, p *auth.Principal, targetID uuid.UUID) (*Board, error) {
	target, err := e.getTarget(ctx, p, targetID)
	if err != nil {
		return nil, err
	}

	tasks, err := e.tasks.ListByTarget(ctx, target.ID)
	if err != nil {
		return nil, errs.Unexpected(err)
	}

	columns := append([]models.Column(nil), target.Columns...)
	sortColumns(columns)

	board := &Board{
		Target:  target,
		Columns: columns,
		Tasks:   make([]*BoardTask, 0, len(tasks)),
	}

	// Resolve each distinct assignee once.
	assignees := make(map[uuid.UUID]*Assignee)
	for _, task := range tasks {
		bt := &BoardTask{Task: task}
		if task.AssigneeID != nil {
			assignee, ok := assignees[*task.AssigneeID]
			if !ok {
				user, err := e.users.Get(ctx, *task.AssigneeID)
				if err == nil {
					assignee = &Assignee{ID: user.ID, Name: user.FullName()}
				}
				assignees[*task.AssigneeID] = assignee
			}
			bt.Assignee = assignee
		}
		board.Tasks = append(board.Tasks, bt)
	}

	return board, nil
}

// CreateColumnParams are the caller-supplied fields for a new column.
type CreateColumnParams struct {
	Name     string
	Color    string
	DotColor string
	Order    *int
}

// CreateColumn appends a column to the target's list, or inserts it at an
// explicit order, and persists the re-sorted list as one write.
func (e *Engine) CreateColumn(ctx context.Context, p *auth.Principal, targetID uuid.UUID, params CreateColumnParams) (*models.Column, error) {
	name := strings.TrimSpace(params.Name)
	if n := utf8.RuneCountInString(name); n < minColumnNameLen || n > maxColumnNameLen {
		return nil, errs.Validation("column name must be 1-50 characters")
	}

	target, err := e.getTarget(ctx, p, targetID)
	if err != nil {
		return nil, err
	}

	column := models.Column{
		ID:       newColumnID(),
		Name:     name,
		Color:    params.Color,
		DotColor: params.DotColor,
	}
	if column.Color == "" {
		column.Color = defaultColumnColor
	}
	if column.DotColor == "" {
		column.DotColor = defaultColumnDotColor
	}

	if params.Order != nil {
		column.Order = *params.Order
	} else {
		for _, c := range target.Columns {
			if c.Order >= column.Order {
				column.Order = c.Order + 1
			}
		}
	}

	columns := append(append([]models.Column(nil), target.Columns...), column)
	sortColumns(columns)

	if err := e.replaceColumns(ctx, target.ID, columns); err != nil {
		return nil, err
	}

	log.Debug().
		Str("target_id", targetID.String()).
		Str("column_id", column.ID).
		Msg("Created column")

	return &column, nil
}

// UpdateColumnParams are the optional fields merged into an existing column.
type UpdateColumnParams struct {
	Name     *string
	Color    *string
	DotColor *string
	Order    *int
}

// UpdateColumn merges the provided fields into the matching column and
// re-sorts the list if the order changed.
func (e *Engine) UpdateColumn(ctx context.Context, p *auth.Principal, targetID uuid.UUID, columnID string, params UpdateColumnParams) (*models.Column, error) {
	target, err := e.getTarget(ctx, p, targetID)
	if err != nil {
		return nil, err
	}

	columns := append([]models.Column(nil), target.Columns...)
	idx := findColumn(columns, columnID)
	if idx < 0 {
		return nil, errs.NotFound("column")
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if n := utf8.RuneCountInString(name); n < minColumnNameLen || n > maxColumnNameLen {
			return nil, errs.Validation("column name must be 1-50 characters")
		}
		columns[idx].Name = name
	}
	if params.Color != nil {
		columns[idx].Color = *params.Color
	}
	if params.DotColor != nil {
		columns[idx].DotColor = *params.DotColor
	}
	if params.Order != nil {
		columns[idx].Order = *params.Order
	}

	updated := columns[idx]
	sortColumns(columns)

	if err := e.replaceColumns(ctx, target.ID, columns); err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeleteColumn removes a column and reassigns its tasks to the lowest-order
// remaining column. Both writes happen in one store transaction so a
// concurrent board read never sees a task pointing at a deleted column.
func (e *Engine) DeleteColumn(ctx context.Context, p *auth.Principal, targetID uuid.UUID, columnID string) error {
	target, err := e.getTarget(ctx, p, targetID)
	if err != nil {
		return err
	}

	idx := findColumn(target.Columns, columnID)
	if idx < 0 {
		return errs.NotFound("column")
	}

	if len(target.Columns) <= 1 {
		return errs.InvalidOperation("cannot delete last column")
	}

	remaining := make([]models.Column, 0, len(target.Columns)-1)
	remaining = append(remaining, target.Columns[:idx]...)
	remaining = append(remaining, target.Columns[idx+1:]...)
	sortColumns(remaining)

	// Tasks on the deleted column fall back to the first remaining column.
	fallback := remaining[0].ID

	err = e.targets.ReplaceColumnsReassigningTasks(ctx, target.ID, remaining, columnID, fallback)
	if err != nil {
		if errors.Is(err, store.ErrTargetNotFound) {
			return errs.NotFound("target")
		}
		return errs.Unexpected(err)
	}

	log.Debug().
		Str("target_id", targetID.String()).
		Str("column_id", columnID).
		Str("fallback_column_id", fallback).
		Msg("Deleted column")

	return nil
}

// MoveTask moves a task to another column on its board, optionally at a new
// intra-column position. Moving onto the done column stamps completion;
// moving off it clears the stamp.
func (e *Engine) MoveTask(ctx context.Context, p *auth.Principal, taskID uuid.UUID, newColumnID string, newOrder *int) (*models.Task, error) {
	task, err := e.getTask(ctx, p, taskID)
	if err != nil {
		return nil, err
	}

	target, err := e.getTarget(ctx, p, task.TargetID)
	if err != nil {
		return nil, err
	}

	if findColumn(target.Columns, newColumnID) < 0 {
		return nil, errs.InvalidOperation("column does not exist on this board")
	}

	task.ColumnID = newColumnID
	if newOrder != nil {
		task.Order = *newOrder
	}

	if newColumnID == doneColumnID {
		if task.CompletedAt == nil {
			now := time.Now()
			task.CompletedAt = &now
		}
	} else {
		task.CompletedAt = nil
	}

	if err := e.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, errs.NotFound("task")
		}
		return nil, errs.Unexpected(err)
	}

	return task, nil
}

// CreateTaskParams are the caller-supplied fields for a new task.
type CreateTaskParams struct {
	Title       string
	Description *string
	Priority    models.Priority
	ColumnID    string
	DueDate     *time.Time
	AssigneeID  *uuid.UUID
}

// CreateTask creates a task on the target's board. An empty column id places
// the task on the first column; an unknown one is rejected.
func (e *Engine) CreateTask(ctx context.Context, p *auth.Principal, targetID uuid.UUID, params CreateTaskParams) (*models.Task, error) {
	title := strings.TrimSpace(params.Title)
	if n := utf8.RuneCountInString(title); n < minTaskTitleLen || n > maxTaskTitleLen {
		return nil, errs.Validation("task title must be 3-100 characters")
	}

	priority := params.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, errs.Validation("invalid task priority")
	}

	target, err := e.getTarget(ctx, p, targetID)
	if err != nil {
		return nil, err
	}

	columns := append([]models.Column(nil), target.Columns...)
	sortColumns(columns)

	columnID := params.ColumnID
	if columnID == "" {
		columnID = columns[0].ID
	} else if findColumn(columns, columnID) < 0 {
		return nil, errs.InvalidOperation("column does not exist on this board")
	}

	if params.AssigneeID != nil {
		if err := e.checkAssignee(ctx, p, *params.AssigneeID); err != nil {
			return nil, err
		}
	}

	order := 0
	tasks, err := e.tasks.ListByTarget(ctx, target.ID)
	if err != nil {
		return nil, errs.Unexpected(err)
	}
	for _, t := range tasks {
		if t.ColumnID == columnID && t.Order >= order {
			order = t.Order + 1
		}
	}

	now := time.Now()
	task := &models.Task{
		ID:          uuid.Must(uuid.NewV7()),
		TargetID:    target.ID,
		Title:       title,
		Description: params.Description,
		Priority:    priority,
		ColumnID:    columnID,
		Order:       order,
		DueDate:     params.DueDate,
		AssigneeID:  params.AssigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := e.tasks.Create(ctx, task); err != nil {
		return nil, errs.Unexpected(err)
	}

	log.Debug().
		Str("task_id", task.ID.String()).
		Str("target_id", target.ID.String()).
		Msg("Created task")

	return task, nil
}

// UpdateTaskParams are the optional fields merged into an existing task.
type UpdateTaskParams struct {
	Title       *string
	Description *string
	Priority    *models.Priority
	DueDate     *time.Time
	ClearDue    bool
}

// UpdateTask merges content changes into a task. Placement changes go through
// MoveTask, assignment changes through AssignTask.
func (e *Engine) UpdateTask(ctx context.Context, p *auth.Principal, taskID uuid.UUID, params UpdateTaskParams) (*models.Task, error) {
	task, err := e.getTask(ctx, p, taskID)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if n := utf8.RuneCountInString(title); n < minTaskTitleLen || n > maxTaskTitleLen {
			return nil, errs.Validation("task title must be 3-100 characters")
		}
		task.Title = title
	}
	if params.Description != nil {
		task.Description = params.Description
	}
	if params.Priority != nil {
		if !params.Priority.Valid() {
			return nil, errs.Validation("invalid task priority")
		}
		task.Priority = *params.Priority
	}
	if params.ClearDue {
		task.DueDate = nil
	} else if params.DueDate != nil {
		task.DueDate = params.DueDate
	}

	if err := e.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, errs.NotFound("task")
		}
		return nil, errs.Unexpected(err)
	}

	return task, nil
}

// AssignTask sets or clears a task's assignee. The assignee must be an active
// member of the principal's organization.
func (e *Engine) AssignTask(ctx context.Context, p *auth.Principal, taskID uuid.UUID, assigneeID *uuid.UUID) (*models.Task, error) {
	task, err := e.getTask(ctx, p, taskID)
	if err != nil {
		return nil, err
	}

	if assigneeID != nil {
		if err := e.checkAssignee(ctx, p, *assigneeID); err != nil {
			return nil, err
		}
	}

	task.AssigneeID = assigneeID

	if err := e.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, errs.NotFound("task")
		}
		return nil, errs.Unexpected(err)
	}

	return task, nil
}

func (e *Engine) getTask(ctx context.Context, p *auth.Principal, taskID uuid.UUID) (*models.Task, error) {
	task, err := e.tasks.Get(ctx, p.OrganizationID, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, errs.NotFound("task")
		}
		return nil, errs.Unexpected(err)
	}
	return task, nil
}

func (e *Engine) checkAssignee(ctx context.Context, p *auth.Principal, assigneeID uuid.UUID) error {
	user, err := e.users.Get(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return errs.Validation("assignee not found in organization")
		}
		return errs.Unexpected(err)
	}
	if user.OrganizationID != p.OrganizationID || !user.IsActive {
		return errs.Validation("assignee not found in organization")
	}
	return nil
}

func (e *Engine) replaceColumns(ctx context.Context, targetID uuid.UUID, columns []models.Column) error {
	if err := e.targets.ReplaceColumns(ctx, targetID, columns); err != nil {
		if errors.Is(err, store.ErrTargetNotFound) {
			return errs.NotFound("target")
		}
		return errs.Unexpected(err)
	}
	return nil
}
