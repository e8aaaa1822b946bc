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

// ProjectStore implements store.ProjectStore using PostgreSQL.
type ProjectStore struct {
	pool *pgxpool.Pool
}

// NewProjectStore creates a new PostgreSQL-backed project store.
func NewProjectStore(pool *pgxpool.Pool) *ProjectStore {
	return &ProjectStore{
		pool: pool,
	}
}

const projectColumns = `project_id, org_id, name, vision, description, status, creator_id, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.Name,
		&p.Vision,
		&p.Description,
		&p.Status,
		&p.CreatorID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create creates a project and its default standup template in one
// transaction so a project can never exist without a template.
func (s *ProjectStore) Create(ctx context.Context, project *models.Project, template *models.StandupTemplate) error {
	questions, err := json.Marshal(template.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal template questions: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	_, err = tx.Exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		project.ID,
		project.OrganizationID,
		project.Name,
		project.Vision,
		project.Description,
		project.Status,
		project.CreatorID,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateProject
		}
		return fmt.Errorf("failed to create project: %w", describePostgresError(err))
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO standup_templates (
			template_id, org_id, project_id, name, description, questions, is_default, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		template.ID,
		template.OrganizationID,
		template.ProjectID,
		template.Name,
		template.Description,
		questions,
		template.IsDefault,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create default template: %w", describePostgresError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit project creation: %w", err)
	}

	log.Debug().
		Str("project_id", project.ID.String()).
		Str("org_id", project.OrganizationID.String()).
		Msg("Created project with default template")

	return nil
}

// Get retrieves a project scoped by organization.
func (s *ProjectStore) Get(ctx context.Context, orgID, projectID uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE project_id = $1 AND org_id = $2`

	project, err := scanProject(s.pool.QueryRow(ctx, query, projectID, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", describePostgresError(err))
	}

	return project, nil
}

// Update updates an existing project.
func (s *ProjectStore) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now()

	query := `
		UPDATE projects SET
			name = $3,
			vision = $4,
			description = $5,
			status = $6,
			updated_at = $7
		WHERE project_id = $1 AND org_id = $2
	`

	result, err := s.pool.Exec(ctx, query,
		project.ID,
		project.OrganizationID,
		project.Name,
		project.Vision,
		project.Description,
		project.Status,
		project.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateProject
		}
		return fmt.Errorf("failed to update project: %w", describePostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrProjectNotFound
	}

	return nil
}

// ListByOrganization returns the organization's projects, newest first.
func (s *ProjectStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE org_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", describePostgresError(err))
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}
