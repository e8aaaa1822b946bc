package models

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType discriminates the answer shape a question expects.
type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionTextarea       QuestionType = "textarea"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTask           QuestionType = "task"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionTextarea, QuestionMultipleChoice, QuestionTask:
		return true
	}
	return false
}

// Question is a single entry in a standup template, stored as JSONB both on
// the template and, frozen, on each standup's snapshot.
type Question struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Required bool         `json:"required"`
	Order    int          `json:"order"`
	Options  []string     `json:"options,omitempty"`
}

// StandupTemplate is a project's configurable question set. The first
// template found for a project is canonical; editing it never touches
// snapshots taken by existing standups.
type StandupTemplate struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ProjectID      uuid.UUID
	Name           string
	Description    string
	Questions      []Question
	IsDefault      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DefaultStandupQuestions returns the three-question set created for every
// project that has no template yet.
func DefaultStandupQuestions() []Question {
	return []Question{
		{ID: "accomplished", Text: "What did you accomplish yesterday?", Type: QuestionTextarea, Required: true, Order: 1},
		{ID: "today", Text: "What will you work on today?", Type: QuestionTextarea, Required: true, Order: 2},
		{ID: "blockers", Text: "Any blockers or challenges?", Type: QuestionTextarea, Required: false, Order: 3},
	}
}

// Standup is one calendar day's check-in for a project. QuestionsSnapshot is
// copied from the template when the standup is first created and is never
// rewritten afterwards, so later template edits cannot change the meaning of
// historical responses.
type Standup struct {
	ID                uuid.UUID
	OrganizationID    uuid.UUID
	ProjectID         uuid.UUID
	TemplateID        uuid.UUID
	Date              time.Time // calendar day, midnight UTC
	QuestionsSnapshot []Question
	CreatedAt         time.Time
}

// Answer is one user's response to a single question, tagged by the
// question's declared type so the engine can validate shape without
// reflection. Text, textarea and multiple_choice answers use Value; task
// answers use SelectedTasks plus Description.
type Answer struct {
	QuestionID    string       `json:"questionId"`
	Type          QuestionType `json:"type"`
	Value         string       `json:"value,omitempty"`
	SelectedTasks []uuid.UUID  `json:"selectedTasks,omitempty"`
	Description   string       `json:"description,omitempty"`
}

// StandupResponse is a single user's submission against a standup. At most
// one row exists per (StandupID, UserID); resubmission overwrites in place.
type StandupResponse struct {
	ID          uuid.UUID
	StandupID   uuid.UUID
	UserID      uuid.UUID
	Answers     []Answer
	SubmittedAt time.Time
}
