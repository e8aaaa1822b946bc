package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/store"
)

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

type standupKey struct {
	projectID uuid.UUID
	date      string
}

// StandupStore is an in-memory implementation of store.StandupStore for
// development and testing.
type StandupStore struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]*models.StandupTemplate
	standups  map[uuid.UUID]*models.Standup
	byDate    map[standupKey]uuid.UUID
	responses map[uuid.UUID]map[uuid.UUID]*models.StandupResponse // standupID -> userID -> response
}

// NewStandupStore creates a new in-memory standup store.
func NewStandupStore() *StandupStore {
	return &StandupStore{
		templates: make(map[uuid.UUID]*models.StandupTemplate),
		standups:  make(map[uuid.UUID]*models.Standup),
		byDate:    make(map[standupKey]uuid.UUID),
		responses: make(map[uuid.UUID]map[uuid.UUID]*models.StandupResponse),
	}
}

func copyQuestions(questions []models.Question) []models.Question {
	cp := make([]models.Question, len(questions))
	for i, q := range questions {
		cp[i] = q
		cp[i].Options = append([]string(nil), q.Options...)
	}
	return cp
}

func copyTemplate(tmpl *models.StandupTemplate) *models.StandupTemplate {
	cp := *tmpl
	cp.Questions = copyQuestions(tmpl.Questions)
	return &cp
}

func copyStandup(st *models.Standup) *models.Standup {
	cp := *st
	cp.QuestionsSnapshot = copyQuestions(st.QuestionsSnapshot)
	return &cp
}

func copyResponse(resp *models.StandupResponse) *models.StandupResponse {
	cp := *resp
	cp.Answers = make([]models.Answer, len(resp.Answers))
	for i, a := range resp.Answers {
		cp.Answers[i] = a
		cp.Answers[i].SelectedTasks = append([]uuid.UUID(nil), a.SelectedTasks...)
	}
	return &cp
}

// CreateTemplate creates a standup template for a project.
func (s *StandupStore) CreateTemplate(ctx context.Context, tmpl *models.StandupTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertTemplateLocked(tmpl)
	return nil
}

func (s *StandupStore) insertTemplateLocked(tmpl *models.StandupTemplate) {
	s.templates[tmpl.ID] = copyTemplate(tmpl)
}

// GetTemplateByProject returns the oldest template for a project.
func (s *StandupStore) GetTemplateByProject(ctx context.Context, orgID, projectID uuid.UUID) (*models.StandupTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var oldest *models.StandupTemplate
	for _, tmpl := range s.templates {
		if tmpl.ProjectID != projectID || tmpl.OrganizationID != orgID {
			continue
		}
		if oldest == nil || tmpl.CreatedAt.Before(oldest.CreatedAt) {
			oldest = tmpl
		}
	}

	if oldest == nil {
		return nil, store.ErrTemplateNotFound
	}

	return copyTemplate(oldest), nil
}

// UpdateTemplateQuestions replaces the template's question list wholesale.
func (s *StandupStore) UpdateTemplateQuestions(ctx context.Context, templateID uuid.UUID, questions []models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpl, exists := s.templates[templateID]
	if !exists {
		return store.ErrTemplateNotFound
	}

	tmpl.Questions = copyQuestions(questions)
	tmpl.UpdatedAt = time.Now()

	return nil
}

// GetOrCreateForDate returns the standup for (project, date), creating it with
// the given snapshot if absent.
func (s *StandupStore) GetOrCreateForDate(ctx context.Context, standup *models.Standup) (*models.Standup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := standupKey{projectID: standup.ProjectID, date: dateKey(standup.Date)}
	if id, exists := s.byDate[key]; exists {
		return copyStandup(s.standups[id]), nil
	}

	cp := copyStandup(standup)
	s.standups[standup.ID] = cp
	s.byDate[key] = standup.ID

	return copyStandup(cp), nil
}

// FindForDate returns the standup for (projectID, date).
func (s *StandupStore) FindForDate(ctx context.Context, projectID uuid.UUID, date time.Time) (*models.Standup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byDate[standupKey{projectID: projectID, date: dateKey(date)}]
	if !exists {
		return nil, store.ErrStandupNotFound
	}

	return copyStandup(s.standups[id]), nil
}

// UpsertResponse inserts or overwrites the response for (standup, user).
func (s *StandupStore) UpsertResponse(ctx context.Context, resp *models.StandupResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.standups[resp.StandupID]; !exists {
		return store.ErrStandupNotFound
	}

	byUser, exists := s.responses[resp.StandupID]
	if !exists {
		byUser = make(map[uuid.UUID]*models.StandupResponse)
		s.responses[resp.StandupID] = byUser
	}

	cp := copyResponse(resp)
	if existing, ok := byUser[resp.UserID]; ok {
		// Keep the original row identity on resubmission.
		cp.ID = existing.ID
	}
	byUser[resp.UserID] = cp

	return nil
}

// GetResponse returns the response for (standupID, userID).
func (s *StandupStore) GetResponse(ctx context.Context, standupID, userID uuid.UUID) (*models.StandupResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp, exists := s.responses[standupID][userID]
	if !exists {
		return nil, store.ErrStandupNotFound
	}

	return copyResponse(resp), nil
}

// ListResponses returns all responses for a standup ordered by submission
// time.
func (s *StandupStore) ListResponses(ctx context.Context, standupID uuid.UUID) ([]*models.StandupResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var responses []*models.StandupResponse
	for _, resp := range s.responses[standupID] {
		responses = append(responses, copyResponse(resp))
	}

	sort.Slice(responses, func(i, j int) bool {
		return responses[i].SubmittedAt.Before(responses[j].SubmittedAt)
	})

	return responses, nil
}

// ListByProject returns standups for a project by date descending, each with
// its responses, paginated by offset/limit.
func (s *StandupStore) ListByProject(ctx context.Context, orgID, projectID uuid.UUID, limit, offset int) ([]*store.StandupWithResponses, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var standups []*models.Standup
	for _, st := range s.standups {
		if st.ProjectID == projectID && st.OrganizationID == orgID {
			standups = append(standups, st)
		}
	}

	sort.Slice(standups, func(i, j int) bool {
		return standups[i].Date.After(standups[j].Date)
	})

	if offset >= len(standups) {
		return nil, nil
	}
	standups = standups[offset:]
	if limit < len(standups) {
		standups = standups[:limit]
	}

	result := make([]*store.StandupWithResponses, 0, len(standups))
	for _, st := range standups {
		swr := &store.StandupWithResponses{Standup: copyStandup(st)}
		for _, resp := range s.responses[st.ID] {
			swr.Responses = append(swr.Responses, copyResponse(resp))
		}
		sort.Slice(swr.Responses, func(i, j int) bool {
			return swr.Responses[i].SubmittedAt.Before(swr.Responses[j].SubmittedAt)
		})
		result = append(result, swr)
	}

	return result, nil
}
