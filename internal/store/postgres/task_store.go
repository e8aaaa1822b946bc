package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/store"
)

// TaskStore implements store.TaskStore using PostgreSQL.
type TaskStore struct {
	pool *pgxpool.Pool
}

// NewTaskStore creates a new PostgreSQL-backed task store.
func NewTaskStore(pool *pgxpool.Pool) *TaskStore {
	return &TaskStore{
		pool: pool,
	}
}

const taskColumns = `task_id, target_id, title, description, priority, column_id, task_order, due_date, completed_at, assignee_id, created_at, updated_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID,
		&t.TargetID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.ColumnID,
		&t.Order,
		&t.DueDate,
		&t.CompletedAt,
		&t.AssigneeID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create creates a new task in the database.
func (s *TaskStore) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		task.ID,
		task.TargetID,
		task.Title,
		task.Description,
		task.Priority,
		task.ColumnID,
		task.Order,
		task.DueDate,
		task.CompletedAt,
		task.AssigneeID,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrTargetNotFound
		}
		return fmt.Errorf("failed to create task: %w", describePostgresError(err))
	}

	log.Debug().
		Str("task_id", task.ID.String()).
		Str("target_id", task.TargetID.String()).
		Msg("Created task")

	return nil
}

// Get retrieves a task scoped by organization via target -> project.
func (s *TaskStore) Get(ctx context.Context, orgID, taskID uuid.UUID) (*models.Task, error) {
	query := `
		SELECT k.task_id, k.target_id, k.title, k.description, k.priority, k.column_id, k.task_order,
		       k.due_date, k.completed_at, k.assignee_id, k.created_at, k.updated_at
		FROM tasks k
		JOIN targets t ON t.target_id = k.target_id
		JOIN projects p ON p.project_id = t.project_id
		WHERE k.task_id = $1 AND p.org_id = $2
	`

	task, err := scanTask(s.pool.QueryRow(ctx, query, taskID, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", describePostgresError(err))
	}

	return task, nil
}

// Update updates an existing task.
func (s *TaskStore) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now()

	query := `
		UPDATE tasks SET
			title = $2,
			description = $3,
			priority = $4,
			column_id = $5,
			task_order = $6,
			due_date = $7,
			completed_at = $8,
			assignee_id = $9,
			updated_at = $10
		WHERE task_id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Priority,
		task.ColumnID,
		task.Order,
		task.DueDate,
		task.CompletedAt,
		task.AssigneeID,
		task.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update task: %w", describePostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// ListByTarget returns a target's tasks ordered by intra-column order.
func (s *TaskStore) ListByTarget(ctx context.Context, targetID uuid.UUID) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE target_id = $1
		ORDER BY task_order, created_at
	`

	rows, err := s.pool.Query(ctx, query, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", describePostgresError(err))
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}
