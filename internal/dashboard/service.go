// Package dashboard derives read-only rollups for the organization overview
// page. Everything here is computed from the other stores on demand; nothing
// is cached or persisted.
package dashboard

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/standflow/standflow/internal/auth"
	"github.com/standflow/standflow/internal/errs"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/store"
)

// DueSoonWindow bounds the upcoming-deadline list.
const DueSoonWindow = 7 * 24 * time.Hour

// Service computes dashboard rollups.
type Service struct {
	projects store.ProjectStore
	targets  store.TargetStore
	tasks    store.TaskStore
	users    store.UserStore
	standups store.StandupStore
}

// NewService creates a dashboard service.
func NewService(projects store.ProjectStore, targets store.TargetStore, tasks store.TaskStore, users store.UserStore, standups store.StandupStore) *Service {
	return &Service{
		projects: projects,
		targets:  targets,
		tasks:    tasks,
		users:    users,
		standups: standups,
	}
}

// Overview is the organization-wide rollup.
type Overview struct {
	ActiveProjects    int
	CompletedProjects int
	ArchivedProjects  int
	Members           int
	OpenTasks         int
	CompletedTasks    int
	StandupsToday     int
	DueSoon           []*models.Task
}

// GetOverview computes counts across the caller's organization and collects
// incomplete tasks due within the next week, soonest first. StandupsToday is
// the number of responses submitted to today's standups.
func (s *Service) GetOverview(ctx context.Context, p *auth.Principal) (*Overview, error) {
	projects, err := s.projects.ListByOrganization(ctx, p.OrganizationID)
	if err != nil {
		return nil, errs.Unexpected(err)
	}

	members, err := s.users.ListByOrganization(ctx, p.OrganizationID, true)
	if err != nil {
		return nil, errs.Unexpected(err)
	}

	overview := &Overview{Members: len(members)}
	now := time.Now()
	horizon := now.Add(DueSoonWindow)
	today := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)

	for _, project := range projects {
		switch project.Status {
		case models.ProjectActive:
			overview.ActiveProjects++
		case models.ProjectCompleted:
			overview.CompletedProjects++
		case models.ProjectArchived:
			overview.ArchivedProjects++
		}
		if project.Status == models.ProjectArchived {
			continue
		}

		standup, err := s.standups.FindForDate(ctx, project.ID, today)
		switch {
		case err == nil:
			responses, err := s.standups.ListResponses(ctx, standup.ID)
			if err != nil {
				return nil, errs.Unexpected(err)
			}
			overview.StandupsToday += len(responses)
		case !errors.Is(err, store.ErrStandupNotFound):
			return nil, errs.Unexpected(err)
		}

		targets, err := s.targets.ListByProject(ctx, project.ID)
		if err != nil {
			return nil, errs.Unexpected(err)
		}
		for _, target := range targets {
			tasks, err := s.tasks.ListByTarget(ctx, target.ID)
			if err != nil {
				return nil, errs.Unexpected(err)
			}
			for _, task := range tasks {
				if task.CompletedAt != nil {
					overview.CompletedTasks++
					continue
				}
				overview.OpenTasks++
				if task.DueDate != nil && task.DueDate.Before(horizon) {
					overview.DueSoon = append(overview.DueSoon, task)
				}
			}
		}
	}

	sort.Slice(overview.DueSoon, func(i, j int) bool {
		return overview.DueSoon[i].DueDate.Before(*overview.DueSoon[j].DueDate)
	})

	return overview, nil
}
