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

// StandupStore implements store.StandupStore using PostgreSQL. Question lists
// and answer lists are JSONB blobs; the (project_id, standup_date) and
// (standup_id, user_id) unique constraints carry the find-or-create and
// upsert semantics.
type StandupStore struct {
	pool *pgxpool.Pool
}

// NewStandupStore creates a new PostgreSQL-backed standup store.
func NewStandupStore(pool *pgxpool.Pool) *StandupStore {
	return &StandupStore{
		pool: pool,
	}
}

// CreateTemplate creates a standup template for a project.
func (s *StandupStore) CreateTemplate(ctx context.Context, tmpl *models.StandupTemplate) error {
	questions, err := json.Marshal(tmpl.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal template questions: %w", err)
	}

	query := `
		INSERT INTO standup_templates (
			template_id, org_id, project_id, name, description, questions, is_default, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		tmpl.ID,
		tmpl.OrganizationID,
		tmpl.ProjectID,
		tmpl.Name,
		tmpl.Description,
		questions,
		tmpl.IsDefault,
		tmpl.CreatedAt,
		tmpl.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create template: %w", describePostgresError(err))
	}

	log.Debug().
		Str("template_id", tmpl.ID.String()).
		Str("project_id", tmpl.ProjectID.String()).
		Msg("Created standup template")

	return nil
}

// GetTemplateByProject returns the oldest template for a project, which the
// engine treats as canonical.
func (s *StandupStore) GetTemplateByProject(ctx context.Context, orgID, projectID uuid.UUID) (*models.StandupTemplate, error) {
	query := `
		SELECT template_id, org_id, project_id, name, description, questions, is_default, created_at, updated_at
		FROM standup_templates
		WHERE project_id = $1 AND org_id = $2
		ORDER BY created_at
		LIMIT 1
	`

	var tmpl models.StandupTemplate
	var questions []byte
	err := s.pool.QueryRow(ctx, query, projectID, orgID).Scan(
		&tmpl.ID,
		&tmpl.OrganizationID,
		&tmpl.ProjectID,
		&tmpl.Name,
		&tmpl.Description,
		&questions,
		&tmpl.IsDefault,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", describePostgresError(err))
	}

	if err := json.Unmarshal(questions, &tmpl.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template questions: %w", err)
	}

	return &tmpl, nil
}

// UpdateTemplateQuestions replaces the template's question list wholesale.
func (s *StandupStore) UpdateTemplateQuestions(ctx context.Context, templateID uuid.UUID, questions []models.Question) error {
	payload, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("failed to marshal template questions: %w", err)
	}

	query := `UPDATE standup_templates SET questions = $2, updated_at = $3 WHERE template_id = $1`

	result, err := s.pool.Exec(ctx, query, templateID, payload, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update template questions: %w", describePostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrTemplateNotFound
	}

	return nil
}

const standupColumns = `standup_id, org_id, project_id, template_id, standup_date, questions_snapshot, created_at`

func scanStandup(row pgx.Row) (*models.Standup, error) {
	var st models.Standup
	var snapshot []byte
	err := row.Scan(
		&st.ID,
		&st.OrganizationID,
		&st.ProjectID,
		&st.TemplateID,
		&st.Date,
		&snapshot,
		&st.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &st.QuestionsSnapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions snapshot: %w", err)
	}
	return &st, nil
}

// GetOrCreateForDate returns the standup for (project, date), creating it
// with the given snapshot if absent. A losing racer falls through the
// ON CONFLICT DO NOTHING and reads the surviving row instead.
func (s *StandupStore) GetOrCreateForDate(ctx context.Context, standup *models.Standup) (*models.Standup, error) {
	snapshot, err := json.Marshal(standup.QuestionsSnapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questions snapshot: %w", err)
	}

	query := `
		INSERT INTO standups (` + standupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (project_id, standup_date) DO NOTHING
	`

	_, err = s.pool.Exec(ctx, query,
		standup.ID,
		standup.OrganizationID,
		standup.ProjectID,
		standup.TemplateID,
		standup.Date,
		snapshot,
		standup.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create standup: %w", describePostgresError(err))
	}

	return s.FindForDate(ctx, standup.ProjectID, standup.Date)
}

// FindForDate returns the standup for (projectID, date).
func (s *StandupStore) FindForDate(ctx context.Context, projectID uuid.UUID, date time.Time) (*models.Standup, error) {
	query := `SELECT ` + standupColumns + ` FROM standups WHERE project_id = $1 AND standup_date = $2`

	standup, err := scanStandup(s.pool.QueryRow(ctx, query, projectID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrStandupNotFound
		}
		return nil, fmt.Errorf("failed to find standup: %w", describePostgresError(err))
	}

	return standup, nil
}

// UpsertResponse inserts or overwrites the response for (standup, user).
func (s *StandupStore) UpsertResponse(ctx context.Context, resp *models.StandupResponse) error {
	answers, err := json.Marshal(resp.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	query := `
		INSERT INTO standup_responses (response_id, standup_id, user_id, answers, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (standup_id, user_id) DO UPDATE
		SET answers = EXCLUDED.answers, submitted_at = EXCLUDED.submitted_at
	`

	_, err = s.pool.Exec(ctx, query,
		resp.ID,
		resp.StandupID,
		resp.UserID,
		answers,
		resp.SubmittedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrStandupNotFound
		}
		return fmt.Errorf("failed to upsert response: %w", describePostgresError(err))
	}

	log.Debug().
		Str("standup_id", resp.StandupID.String()).
		Str("user_id", resp.UserID.String()).
		Msg("Upserted standup response")

	return nil
}

// GetResponse returns the response for (standupID, userID).
func (s *StandupStore) GetResponse(ctx context.Context, standupID, userID uuid.UUID) (*models.StandupResponse, error) {
	query := `
		SELECT response_id, standup_id, user_id, answers, submitted_at
		FROM standup_responses
		WHERE standup_id = $1 AND user_id = $2
	`

	var resp models.StandupResponse
	var answers []byte
	err := s.pool.QueryRow(ctx, query, standupID, userID).Scan(
		&resp.ID,
		&resp.StandupID,
		&resp.UserID,
		&answers,
		&resp.SubmittedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrStandupNotFound
		}
		return nil, fmt.Errorf("failed to get response: %w", describePostgresError(err))
	}

	if err := json.Unmarshal(answers, &resp.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
	}

	return &resp, nil
}

// ListResponses returns all responses for a standup ordered by submission
// time.
func (s *StandupStore) ListResponses(ctx context.Context, standupID uuid.UUID) ([]*models.StandupResponse, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT response_id, standup_id, user_id, answers, submitted_at
		FROM standup_responses
		WHERE standup_id = $1
		ORDER BY submitted_at
	`, standupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", describePostgresError(err))
	}
	defer rows.Close()

	var responses []*models.StandupResponse
	for rows.Next() {
		var resp models.StandupResponse
		var answers []byte
		if err := rows.Scan(&resp.ID, &resp.StandupID, &resp.UserID, &answers, &resp.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if err := json.Unmarshal(answers, &resp.Answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}
		responses = append(responses, &resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating responses: %w", err)
	}

	return responses, nil
}

// ListByProject returns standups for a project by date descending, each with
// its responses, paginated by offset/limit.
func (s *StandupStore) ListByProject(ctx context.Context, orgID, projectID uuid.UUID, limit, offset int) ([]*store.StandupWithResponses, error) {
	query := `
		SELECT ` + standupColumns + `
		FROM standups
		WHERE project_id = $1 AND org_id = $2
		ORDER BY standup_date DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := s.pool.Query(ctx, query, projectID, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list standups: %w", describePostgresError(err))
	}
	defer rows.Close()

	var result []*store.StandupWithResponses
	var ids []uuid.UUID
	for rows.Next() {
		standup, err := scanStandup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan standup: %w", err)
		}
		result = append(result, &store.StandupWithResponses{Standup: standup})
		ids = append(ids, standup.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating standups: %w", err)
	}

	if len(ids) == 0 {
		return result, nil
	}

	respRows, err := s.pool.Query(ctx, `
		SELECT response_id, standup_id, user_id, answers, submitted_at
		FROM standup_responses
		WHERE standup_id = ANY($1)
		ORDER BY submitted_at
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", describePostgresError(err))
	}
	defer respRows.Close()

	byStandup := make(map[uuid.UUID]*store.StandupWithResponses, len(result))
	for _, swr := range result {
		byStandup[swr.Standup.ID] = swr
	}

	for respRows.Next() {
		var resp models.StandupResponse
		var answers []byte
		err := respRows.Scan(&resp.ID, &resp.StandupID, &resp.UserID, &answers, &resp.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if err := json.Unmarshal(answers, &resp.Answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}
		if swr, ok := byStandup[resp.StandupID]; ok {
			swr.Responses = append(swr.Responses, &resp)
		}
	}
	if err := respRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating responses: %w", err)
	}

	return result, nil
}
