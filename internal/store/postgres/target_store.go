package postgres

import (
	"context"
	"encoding/json"
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

// TargetStore implements store.TargetStore using PostgreSQL. The column list
// is a JSONB blob on the target row, written wholesale on every change.
type TargetStore struct {
	pool *pgxpool.Pool
}

// NewTargetStore creates a new PostgreSQL-backed target store.
func NewTargetStore(pool *pgxpool.Pool) *TargetStore {
	return &TargetStore{
		pool: pool,
	}
}

func scanTarget(row pgx.Row) (*models.Target, error) {
	var t models.Target
	var columns []byte
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&t.Status,
		&columns,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(columns, &t.Columns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kanban columns: %w", err)
	}
	return &t, nil
}

// Create creates a new target with its seeded column list.
func (s *TargetStore) Create(ctx context.Context, target *models.Target) error {
	columns, err := json.Marshal(target.Columns)
	if err != nil {
		return fmt.Errorf("failed to marshal kanban columns: %w", err)
	}

	query := `
		INSERT INTO targets (
			target_id, project_id, title, description, status, kanban_columns, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		target.ID,
		target.ProjectID,
		target.Title,
		target.Description,
		target.Status,
		columns,
		target.CreatedAt,
		target.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create target: %w", describePostgresError(err))
	}

	log.Debug().
		Str("target_id", target.ID.String()).
		Str("project_id", target.ProjectID.String()).
		Msg("Created target")

	return nil
}

// Get retrieves a target scoped by organization via its project.
func (s *TargetStore) Get(ctx context.Context, orgID, targetID uuid.UUID) (*models.Target, error) {
	query := `
		SELECT t.target_id, t.project_id, t.title, t.description, t.status, t.kanban_columns, t.created_at, t.updated_at
		FROM targets t
		JOIN projects p ON p.project_id = t.project_id
		WHERE t.target_id = $1 AND p.org_id = $2
	`

	target, err := scanTarget(s.pool.QueryRow(ctx, query, targetID, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTargetNotFound
		}
		return nil, fmt.Errorf("failed to get target: %w", describePostgresError(err))
	}

	return target, nil
}

// ListByProject returns a project's targets, newest first.
func (s *TargetStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Target, error) {
	query := `
		SELECT target_id, project_id, title, description, status, kanban_columns, created_at, updated_at
		FROM targets
		WHERE project_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", describePostgresError(err))
	}
	defer rows.Close()

	var targets []*models.Target
	for rows.Next() {
		target, err := scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating targets: %w", err)
	}

	return targets, nil
}

// ReplaceColumns overwrites the target's column list as one atomic write.
func (s *TargetStore) ReplaceColumns(ctx context.Context, targetID uuid.UUID, columns []models.Column) error {
	payload, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("failed to marshal kanban columns: %w", err)
	}

	query := `UPDATE targets SET kanban_columns = $2, updated_at = $3 WHERE target_id = $1`

	result, err := s.pool.Exec(ctx, query, targetID, payload, time.Now())
	if err != nil {
		return fmt.Errorf("failed to replace columns: %w", describePostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrTargetNotFound
	}

	return nil
}

// ReplaceColumnsReassigningTasks overwrites the column list and moves every
// task on fromColumnID to toColumnID inside a single transaction, so a
// concurrent board read never sees a task pointing at a deleted column.
func (s *TargetStore) ReplaceColumnsReassigningTasks(ctx context.Context, targetID uuid.UUID, columns []models.Column, fromColumnID, toColumnID string) error {
	payload, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("failed to marshal kanban columns: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	tag, err := tx.Exec(ctx, `
		UPDATE targets SET kanban_columns = $2, updated_at = $3 WHERE target_id = $1
	`, targetID, payload, time.Now())
	if err != nil {
		return fmt.Errorf("failed to replace columns: %w", describePostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrTargetNotFound
	}

	moved, err := tx.Exec(ctx, `
		UPDATE tasks SET column_id = $3, updated_at = $4
		WHERE target_id = $1 AND column_id = $2
	`, targetID, fromColumnID, toColumnID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to reassign tasks: %w", describePostgresError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit column deletion: %w", err)
	}

	log.Debug().
		Str("target_id", targetID.String()).
		Str("from_column", fromColumnID).
		Str("to_column", toColumnID).
		Int64("tasks_moved", moved.RowsAffected()).
		Msg("Deleted column and reassigned tasks")

	return nil
}
