// Package standup manages per-project questionnaire templates and the daily
// standups answered against them. A standup freezes a snapshot of the
// template's questions at creation time; later template edits never change
// the meaning of past answers.
package standup

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/standflow/standflow/internal/auth"
	"github.com/standflow/standflow/internal/errs"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/store"
)

const defaultTemplateName = "Daily Standup"

// DefaultPageSize bounds timeline pages when the caller does not ask for a
// specific size.
const DefaultPageSize = 10

// Engine coordinates templates, standups and responses for projects.
type Engine struct {
	projects store.ProjectStore
	standups store.StandupStore
	users    store.UserStore
}

// NewEngine creates a questionnaire engine over the given stores.
func NewEngine(projects store.ProjectStore, standups store.StandupStore, users store.UserStore) *Engine {
	return &Engine{
		projects: projects,
		standups: standups,
		users:    users,
	}
}

func (e *Engine) checkProject(ctx context.Context, p *auth.Principal, projectID uuid.UUID) error {
	_, err := e.projects.Get(ctx, p.OrganizationID, projectID)
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			return errs.NotFound("project")
		}
		return errs.Unexpected(err)
	}
	return nil
}

// GetOrCreateTemplate returns the project's template, creating the default
// three-question one if the project has none yet. Concurrent callers may race
// to create; both resolve to the oldest surviving template.
func (e *Engine) GetOrCreateTemplate(ctx context.Context, p *auth.Principal, projectID uuid.UUID) (*models.StandupTemplate, error) {
	if err := e.checkProject(ctx, p, projectID); err != nil {
		return nil, err
	}

	tmpl, err := e.standups.GetTemplateByProject(ctx, p.OrganizationID, projectID)
	if err == nil {
		return tmpl, nil
	}
	if !errors.Is(err, store.ErrTemplateNotFound) {
		return nil, errs.Unexpected(err)
	}

	now := time.Now()
	created := &models.StandupTemplate{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: p.OrganizationID,
		ProjectID:      projectID,
		Name:           defaultTemplateName,
		Questions:      models.DefaultStandupQuestions(),
		IsDefault:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.standups.CreateTemplate(ctx, created); err != nil {
		return nil, errs.Unexpected(err)
	}

	log.Debug().
		Str("project_id", projectID.String()).
		Str("template_id", created.ID.String()).
		Msg("Created default standup template")

	// Re-read so a lost creation race still yields the canonical template.
	tmpl, err = e.standups.GetTemplateByProject(ctx, p.OrganizationID, projectID)
	if err != nil {
		return nil, errs.Unexpected(err)
	}

	return tmpl, nil
}

func newQuestionID() string {
	return fmt.Sprintf("question_%d_%06x", time.Now().UnixMilli(), rand.Uint32N(1<<24))
}

func validateQuestions(questions []models.Question) error {
	if len(questions) == 0 {
		return errs.Validation("template must have at least one question")
	}
	for i := range questions {
		q := &questions[i]
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return errs.Validation("every question needs text")
		}
		if !q.Type.Valid() {
			return errs.Validation(fmt.Sprintf("unknown question type %q", q.Type))
		}
		if q.Type == models.QuestionMultipleChoice && len(q.Options) == 0 {
			return errs.Validation("multiple choice questions need at least one option")
		}
		if q.ID == "" {
			q.ID = newQuestionID()
		}
	}
	return nil
}

// SaveTemplate replaces the project template's question list wholesale.
// Owner-only: template edits are stricter than general project access.
func (e *Engine) SaveTemplate(ctx context.Context, p *auth.Principal, projectID uuid.UUID, questions []models.Question) (*models.StandupTemplate, error) {
	if err := auth.RequirePermission(p, auth.PermTemplateEdit); err != nil {
		return nil, err
	}

	tmpl, err := e.GetOrCreateTemplate(ctx, p, projectID)
	if err != nil {
		return nil, err
	}

	questions = slices.Clone(questions)
	if err := validateQuestions(questions); err != nil {
		return nil, err
	}

	if err := e.standups.UpdateTemplateQuestions(ctx, tmpl.ID, questions); err != nil {
		if errors.Is(err, store.ErrTemplateNotFound) {
			return nil, errs.NotFound("template")
		}
		return nil, errs.Unexpected(err)
	}

	tmpl.Questions = questions
	return tmpl, nil
}

// normalizeDate truncates a timestamp to its calendar day in UTC. Standups
// are keyed by day, never by time.
func normalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func answerGiven(q models.Question, a *models.Answer) bool {
	if a == nil {
		return false
	}
	if q.Type == models.QuestionTask {
		return len(a.SelectedTasks) > 0 || strings.TrimSpace(a.Description) != ""
	}
	return strings.TrimSpace(a.Value) != ""
}

// validateAnswers checks the submitted answers against a question set and
// returns them filtered to known questions, tagged with each question's type.
func validateAnswers(questions []models.Question, answers []models.Answer) ([]models.Answer, error) {
	byQuestion := make(map[string]*models.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	var missing []string
	kept := make([]models.Answer, 0, len(questions))
	for _, q := range questions {
		a := byQuestion[q.ID]
		if !answerGiven(q, a) {
			if q.Required {
				missing = append(missing, q.ID)
			}
			continue
		}
		if q.Type == models.QuestionMultipleChoice && !slices.Contains(q.Options, a.Value) {
			return nil, errs.Validation(fmt.Sprintf("answer for %q is not one of the question's options", q.ID))
		}
		a.Type = q.Type
		kept = append(kept, *a)
	}

	if len(missing) > 0 {
		fields := make(map[string][]string, len(missing))
		for _, id := range missing {
			fields[id] = []string{"an answer is required"}
		}
		return nil, errs.ValidationFields("required questions are unanswered", fields)
	}

	return kept, nil
}

// SubmitResponse records or overwrites the caller's answers for a project's
// standup on the given date. The day's standup is created on first valid
// submission with a frozen snapshot of the current template questions; a
// rejected submission leaves no standup behind and the snapshot unfrozen.
func (e *Engine) SubmitResponse(ctx context.Context, p *auth.Principal, projectID uuid.UUID, date time.Time, answers []models.Answer) (*models.StandupResponse, error) {
	tmpl, err := e.GetOrCreateTemplate(ctx, p, projectID)
	if err != nil {
		return nil, err
	}

	day := normalizeDate(date)

	// Validate against the existing snapshot if the day's standup already
	// exists, otherwise against the live template, which is exactly what the
	// snapshot would freeze.
	questions := tmpl.Questions
	existing, err := e.standups.FindForDate(ctx, projectID, day)
	switch {
	case err == nil:
		questions = existing.QuestionsSnapshot
	case !errors.Is(err, store.ErrStandupNotFound):
		return nil, errs.Unexpected(err)
	}

	kept, err := validateAnswers(questions, answers)
	if err != nil {
		return nil, err
	}

	st := existing
	if st == nil {
		st, err = e.standups.GetOrCreateForDate(ctx, &models.Standup{
			ID:                uuid.Must(uuid.NewV7()),
			OrganizationID:    p.OrganizationID,
			ProjectID:         projectID,
			TemplateID:        tmpl.ID,
			Date:              day,
			QuestionsSnapshot: tmpl.Questions,
			CreatedAt:         time.Now(),
		})
		if err != nil {
			return nil, errs.Unexpected(err)
		}
	}

	resp := &models.StandupResponse{
		ID:          uuid.Must(uuid.NewV7()),
		StandupID:   st.ID,
		UserID:      p.UserID,
		Answers:     kept,
		SubmittedAt: time.Now(),
	}
	if err := e.standups.UpsertResponse(ctx, resp); err != nil {
		return nil, errs.Unexpected(err)
	}

	log.Debug().
		Str("standup_id", st.ID.String()).
		Str("user_id", p.UserID.String()).
		Msg("Submitted standup response")

	return resp, nil
}

// Responder is a response expanded with its author for timeline rendering.
type Responder struct {
	Response *models.StandupResponse
	UserID   uuid.UUID
	Name     string
}

// TimelineEntry is one day's standup with all submitted responses.
type TimelineEntry struct {
	Standup    *models.Standup
	Responders []Responder
}

// Timeline is one page of a project's standup history.
type Timeline struct {
	Entries []TimelineEntry
	HasMore bool
}

// GetTimeline returns standups for a project, newest date first, paginated by
// offset. Pagination is stateless: new standups inserted between pages may
// shift boundaries, which is accepted.
func (e *Engine) GetTimeline(ctx context.Context, p *auth.Principal, projectID uuid.UUID, pageSize, offset int) (*Timeline, error) {
	if err := e.checkProject(ctx, p, projectID); err != nil {
		return nil, err
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	// Fetch one extra row to learn whether another page exists.
	rows, err := e.standups.ListByProject(ctx, p.OrganizationID, projectID, pageSize+1, offset)
	if err != nil {
		return nil, errs.Unexpected(err)
	}

	timeline := &Timeline{HasMore: len(rows) > pageSize}
	if timeline.HasMore {
		rows = rows[:pageSize]
	}

	names := make(map[uuid.UUID]string)
	for _, row := range rows {
		entry := TimelineEntry{Standup: row.Standup}
		for _, resp := range row.Responses {
			name, ok := names[resp.UserID]
			if !ok {
				if user, err := e.users.Get(ctx, resp.UserID); err == nil {
					name = user.FullName()
				}
				names[resp.UserID] = name
			}
			entry.Responders = append(entry.Responders, Responder{
				Response: resp,
				UserID:   resp.UserID,
				Name:     name,
			})
		}
		timeline.Entries = append(timeline.Entries, entry)
	}

	return timeline, nil
}

// GetStandupForDate returns the standup and responses for a single day, used
// by the daily check-in view.
func (e *Engine) GetStandupForDate(ctx context.Context, p *auth.Principal, projectID uuid.UUID, date time.Time) (*TimelineEntry, error) {
	if err := e.checkProject(ctx, p, projectID); err != nil {
		return nil, err
	}

	st, err := e.standups.FindForDate(ctx, projectID, normalizeDate(date))
	if err != nil {
		if errors.Is(err, store.ErrStandupNotFound) {
			return nil, errs.NotFound("standup")
		}
		return nil, errs.Unexpected(err)
	}

	responses, err := e.standups.ListResponses(ctx, st.ID)
	if err != nil {
		return nil, errs.Unexpected(err)
	}

	entry := &TimelineEntry{Standup: st}
	for _, resp := range responses {
		name := ""
		if user, err := e.users.Get(ctx, resp.UserID); err == nil {
			name = user.FullName()
		}
		entry.Responders = append(entry.Responders, Responder{
			Response: resp,
			UserID:   resp.UserID,
			Name:     name,
		})
	}

	return entry, nil
}
