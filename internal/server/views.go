package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/account"
	"github.com/standflow/standflow/internal/kanban"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/project"
	"github.com/standflow/standflow/internal/standup"
)

type userView struct {
	ID          uuid.UUID  `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func newUserView(u *models.User) userView {
	return userView{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Name:        u.FullName(),
		Email:       u.Email,
		Role:        string(u.Role),
		LastLoginAt: u.LastLoginAt,
	}
}

type sessionView struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

func newSessionView(s *account.Session) sessionView {
	return sessionView{User: newUserView(s.User), Token: s.Token}
}

type organizationView struct {
	ID       uuid.UUID                   `json:"id"`
	Name     string                      `json:"name"`
	Domain   *string                     `json:"domain,omitempty"`
	Settings models.OrganizationSettings `json:"settings"`
}

func newOrganizationView(o *models.Organization) organizationView {
	return organizationView{ID: o.ID, Name: o.Name, Domain: o.Domain, Settings: o.Settings}
}

type invitationView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func newInvitationView(i *models.Invitation) invitationView {
	return invitationView{
		ID:        i.ID,
		Email:     i.Email,
		Role:      string(i.Role),
		Status:    string(i.Status),
		Token:     i.Token,
		ExpiresAt: i.ExpiresAt,
		CreatedAt: i.CreatedAt,
	}
}

type projectView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Vision      string    `json:"vision"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatorID   uuid.UUID `json:"creatorId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newProjectView(p *models.Project) projectView {
	return projectView{
		ID:          p.ID,
		Name:        p.Name,
		Vision:      p.Vision,
		Description: p.Description,
		Status:      string(p.Status),
		CreatorID:   p.CreatorID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type projectSummaryView struct {
	projectView
	TargetCount    int     `json:"targetCount"`
	TaskCount      int     `json:"taskCount"`
	CompletedTasks int     `json:"completedTasks"`
	CompletionRate float64 `json:"completionRate"`
}

func newProjectSummaryView(s *project.Summary) projectSummaryView {
	return projectSummaryView{
		projectView:    newProjectView(s.Project),
		TargetCount:    s.TargetCount,
		TaskCount:      s.TaskCount,
		CompletedTasks: s.CompletedTasks,
		CompletionRate: s.CompletionRate(),
	}
}

type targetView struct {
	ID          uuid.UUID       `json:"id"`
	ProjectID   uuid.UUID       `json:"projectId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status"`
	Columns     []models.Column `json:"columns"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func newTargetView(t *models.Target) targetView {
	return targetView{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Columns:     t.Columns,
		CreatedAt:   t.CreatedAt,
	}
}

type taskView struct {
	ID          uuid.UUID        `json:"id"`
	TargetID    uuid.UUID        `json:"targetId"`
	Title       string           `json:"title"`
	Description *string          `json:"description,omitempty"`
	Priority    string           `json:"priority"`
	ColumnID    string           `json:"columnId"`
	Order       int              `json:"order"`
	DueDate     *time.Time       `json:"dueDate,omitempty"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	Assignee    *kanban.Assignee `json:"assignee,omitempty"`
}

func newTaskView(t *models.Task, assignee *kanban.Assignee) taskView {
	return taskView{
		ID:          t.ID,
		TargetID:    t.TargetID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		ColumnID:    t.ColumnID,
		Order:       t.Order,
		DueDate:     t.DueDate,
		CompletedAt: t.CompletedAt,
		Assignee:    assignee,
	}
}

type boardView struct {
	Target  targetView      `json:"target"`
	Columns []models.Column `json:"columns"`
	Tasks   []taskView      `json:"tasks"`
}

func newBoardView(b *kanban.Board) boardView {
	view := boardView{
		Target:  newTargetView(b.Target),
		Columns: b.Columns,
		Tasks:   make([]taskView, 0, len(b.Tasks)),
	}
	for _, bt := range b.Tasks {
		view.Tasks = append(view.Tasks, newTaskView(bt.Task, bt.Assignee))
	}
	return view
}

type templateView struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Questions []models.Question `json:"questions"`
	IsDefault bool              `json:"isDefault"`
}

func newTemplateView(t *models.StandupTemplate) templateView {
	return templateView{ID: t.ID, Name: t.Name, Questions: t.Questions, IsDefault: t.IsDefault}
}

type responseView struct {
	UserID      uuid.UUID       `json:"userId"`
	UserName    string          `json:"userName"`
	Answers     []models.Answer `json:"answers"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

type standupView struct {
	ID        uuid.UUID         `json:"id"`
	Date      string            `json:"date"`
	Questions []models.Question `json:"questions"`
	Responses []responseView    `json:"responses"`
}

func newStandupView(entry *standup.TimelineEntry) standupView {
	view := standupView{
		ID:        entry.Standup.ID,
		Date:      entry.Standup.Date.Format("2006-01-02"),
		Questions: entry.Standup.QuestionsSnapshot,
		Responses: make([]responseView, 0, len(entry.Responders)),
	}
	for _, r := range entry.Responders {
		view.Responses = append(view.Responses, responseView{
			UserID:      r.UserID,
			UserName:    r.Name,
			Answers:     r.Response.Answers,
			SubmittedAt: r.Response.SubmittedAt,
		})
	}
	return view
}
