package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/models"
)

// Sentinel errors for standup store operations
var (
	ErrTemplateNotFound = errors.New("standup template not found")
	ErrStandupNotFound  = errors.New("standup not found")
)

// StandupWithResponses pairs a standup with its submitted responses, ordered
// by submission time.
type StandupWithResponses struct {
	Standup   *models.Standup
	Responses []*models.StandupResponse
}

// StandupStore defines the interface for standup template, standup and
// response storage.
type StandupStore interface {
	// CreateTemplate creates a standup template for a project.
	CreateTemplate(ctx context.Context, tmpl *models.StandupTemplate) error

	// GetTemplateByProject returns the first template found for a project,
	// which the engine treats as canonical.
	// Returns ErrTemplateNotFound if the project has none.
	GetTemplateByProject(ctx context.Context, orgID, projectID uuid.UUID) (*models.StandupTemplate, error)

	// UpdateTemplateQuestions replaces the template's question list
	// wholesale. Returns ErrTemplateNotFound if the template doesn't exist.
	UpdateTemplateQuestions(ctx context.Context, templateID uuid.UUID, questions []models.Question) error

	// GetOrCreateForDate returns the standup for (projectID, date), creating
	// it with the given snapshot when absent. A concurrent duplicate create
	// must resolve to the surviving row rather than an error.
	GetOrCreateForDate(ctx context.Context, standup *models.Standup) (*models.Standup, error)

	// UpsertResponse inserts or overwrites the response for
	// (standup, user); at most one row exists per pair.
	UpsertResponse(ctx context.Context, resp *models.StandupResponse) error

	// GetResponse returns the response for (standupID, userID), or
	// ErrStandupNotFound when the user has not submitted.
	GetResponse(ctx context.Context, standupID, userID uuid.UUID) (*models.StandupResponse, error)

	// ListResponses returns all responses for a standup ordered by
	// submission time.
	ListResponses(ctx context.Context, standupID uuid.UUID) ([]*models.StandupResponse, error)

	// FindForDate returns the standup for (projectID, date), or
	// ErrStandupNotFound.
	FindForDate(ctx context.Context, projectID uuid.UUID, date time.Time) (*models.Standup, error)

	// ListByProject returns standups for a project ordered by date
	// descending, with their responses, paginated by offset/limit.
	ListByProject(ctx context.Context, orgID, projectID uuid.UUID, limit, offset int) ([]*StandupWithResponses, error)
}
