// Package project manages the project and target lifecycle: creation with an
// atomic default standup template, status transitions, and list views with
// progress rollups.
package project

import (
	"context"
	"errors"
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
	minNameLen   = 2
	maxNameLen   = 100
	minVisionLen = 10
	maxVisionLen = 500
	minTitleLen  = 3
	maxTitleLen  = 100
)

// Service implements project and target operations.
type Service struct {
	projects store.ProjectStore
	targets  store.TargetStore
	tasks    store.TaskStore
}

// NewService creates a project service.
func NewService(projects store.ProjectStore, targets store.TargetStore, tasks store.TaskStore) *Service {
	return &Service{
		projects: projects,
		targets:  targets,
		tasks:    tasks,
	}
}

// CreateParams are the fields collected by the new-project form.
type CreateParams struct {
	Name        string
	Vision      string
	Description *string
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		return "", errs.ValidationFields("project details are invalid", map[string][]string{
			"name": {"project name must be 2-100 characters"},
		})
	}
	return name, nil
}

func validateVision(vision string) (string, error) {
	vision = strings.TrimSpace(vision)
	if n := utf8.RuneCountInString(vision); n < minVisionLen || n > maxVisionLen {
		return "", errs.ValidationFields("project details are invalid", map[string][]string{
			"vision": {"vision must be 10-500 characters"},
		})
	}
	return vision, nil
}

// Create creates a project and its default standup template in one store
// transaction.
func (s *Service) Create(ctx context.Context, p *auth.Principal, params CreateParams) (*models.Project, error) {
	if err := auth.RequirePermission(p, auth.PermProjectsCreate); err != nil {
		return nil, err
	}

	name, err := validateName(params.Name)
	if err != nil {
		return nil, err
	}
	vision, err := validateVision(params.Vision)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	project := &models.Project{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: p.OrganizationID,
		Name:           name,
		Vision:         vision,
		Description:    params.Description,
		Status:         models.ProjectActive,
		CreatorID:      p.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	template := &models.StandupTemplate{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: p.OrganizationID,
		ProjectID:      project.ID,
		Name:           "Daily Standup",
		Questions:      models.DefaultStandupQuestions(),
		IsDefault:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.projects.Create(ctx, project, template); err != nil {
		if errors.Is(err, store.ErrDuplicateProject) {
			return nil, errs.ValidationFields("project details are invalid", map[string][]string{
				"name": {"a project with this name already exists"},
			})
		}
		return nil, errs.Unexpected(err)
	}

	log.Info().
		Str("project_id", project.ID.String()).
		Str("org_id", p.OrganizationID.String()).
		Msg("Project created")

	return project, nil
}

// Get returns a single project.
func (s *Service) Get(ctx context.Context, p *auth.Principal, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.projects.Get(ctx, p.OrganizationID, projectID)
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			return nil, errs.NotFound("project")
		}
		return nil, errs.Unexpected(err)
	}
	return project, nil
}

// UpdateParams are the optional fields of a project edit.
type UpdateParams struct {
	Name        *string
	Vision      *string
	Description *string
	Status      *models.ProjectStatus
}

// Update merges the provided fields into a project.
func (s *Service) Update(ctx context.Context, p *auth.Principal, projectID uuid.UUID, params UpdateParams) (*models.Project, error) {
	if err := auth.RequirePermission(p, auth.PermProjectsManage); err != nil {
		return nil, err
	}

	project, err := s.Get(ctx, p, projectID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		name, err := validateName(*params.Name)
		if err != nil {
			return nil, err
		}
		project.Name = name
	}
	if params.Vision != nil {
		vision, err := validateVision(*params.Vision)
		if err != nil {
			return nil, err
		}
		project.Vision = vision
	}
	if params.Description != nil {
		project.Description = params.Description
	}
	if params.Status != nil {
		switch *params.Status {
		case models.ProjectActive, models.ProjectCompleted, models.ProjectArchived:
			project.Status = *params.Status
		default:
			return nil, errs.Validation("invalid project status")
		}
	}

	if err := s.projects.Update(ctx, project); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateProject):
			return nil, errs.ValidationFields("project details are invalid", map[string][]string{
				"name": {"a project with this name already exists"},
			})
		case errors.Is(err, store.ErrProjectNotFound):
			return nil, errs.NotFound("project")
		}
		return nil, errs.Unexpected(err)
	}

	return project, nil
}

// Archive retires a project. Archived projects free up their name for reuse.
func (s *Service) Archive(ctx context.Context, p *auth.Principal, projectID uuid.UUID) error {
	status := models.ProjectArchived
	_, err := s.Update(ctx, p, projectID, UpdateParams{Status: &status})
	return err
}

// Summary is a project with its progress rollup for list views.
type Summary struct {
	Project        *models.Project
	TargetCount    int
	TaskCount      int
	CompletedTasks int
}

// CompletionRate returns the fraction of the project's tasks that are done.
func (s *Summary) CompletionRate() float64 {
	if s.TaskCount == 0 {
		return 0
	}
	return float64(s.CompletedTasks) / float64(s.TaskCount)
}

// List returns the organization's projects with target and task rollups,
// newest first.
func (s *Service) List(ctx context.Context, p *auth.Principal) ([]*Summary, error) {
	projects, err := s.projects.ListByOrganization(ctx, p.OrganizationID)
	if err != nil {
		return nil, errs.Unexpected(err)
	}

	summaries := make([]*Summary, 0, len(projects))
	for _, project := range projects {
		summary := &Summary{Project: project}

		targets, err := s.targets.ListByProject(ctx, project.ID)
		if err != nil {
			return nil, errs.Unexpected(err)
		}
		summary.TargetCount = len(targets)

		for _, target := range targets {
			tasks, err := s.tasks.ListByTarget(ctx, target.ID)
			if err != nil {
				return nil, errs.Unexpected(err)
			}
			summary.TaskCount += len(tasks)
			for _, task := range tasks {
				if task.CompletedAt != nil {
					summary.CompletedTasks++
				}
			}
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// TargetParams are the fields collected by the new-target form.
type TargetParams struct {
	Title       string
	Description string
}

// CreateTarget creates a target under a project, seeded with the default
// column set. Open to every member; boards are collaborative.
func (s *Service) CreateTarget(ctx context.Context, p *auth.Principal, projectID uuid.UUID, params TargetParams) (*models.Target, error) {
	title := strings.TrimSpace(params.Title)
	if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
		return nil, errs.Validation("target title must be 3-100 characters")
	}

	project, err := s.Get(ctx, p, projectID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	target := &models.Target{
		ID:          uuid.Must(uuid.NewV7()),
		ProjectID:   project.ID,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Status:      models.TargetActive,
		Columns:     models.DefaultColumns(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.targets.Create(ctx, target); err != nil {
		return nil, errs.Unexpected(err)
	}

	log.Debug().
		Str("target_id", target.ID.String()).
		Str("project_id", project.ID.String()).
		Msg("Target created")

	return target, nil
}

// ListTargets returns a project's targets, newest first.
func (s *Service) ListTargets(ctx context.Context, p *auth.Principal, projectID uuid.UUID) ([]*models.Target, error) {
	if _, err := s.Get(ctx, p, projectID); err != nil {
		return nil, err
	}

	targets, err := s.targets.ListByProject(ctx, projectID)
	if err != nil {
		return nil, errs.Unexpected(err)
	}
	return targets, nil
}

// GetTarget returns a single target.
func (s *Service) GetTarget(ctx context.Context, p *auth.Principal, targetID uuid.UUID) (*models.Target, error) {
	target, err := s.targets.Get(ctx, p.OrganizationID, targetID)
	if err != nil {
		if errors.Is(err, store.ErrTargetNotFound) {
			return nil, errs.NotFound("target")
		}
		return nil, errs.Unexpected(err)
	}
	return target, nil
}
