package standup

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/auth"
	"github.com/standflow/standflow/internal/errs"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/store"
	"github.com/standflow/standflow/internal/store/memory"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine  *Engine
	stores  *store.Stores
	owner   *auth.Principal
	member  *auth.Principal
	project *models.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	stores := memory.NewStores()

	org := &models.Organization{
		ID:       uuid.Must(uuid.NewV7()),
		Name:     "Acme",
		Settings: models.DefaultOrganizationSettings(),
	}
	require.NoError(t, stores.Organizations.Create(ctx, org))

	owner := &models.User{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: org.ID,
		FirstName:      "Olive",
		LastName:       "Owner",
		Email:          "olive@acme.test",
		Role:           models.RoleOwner,
		IsActive:       true,
	}
	require.NoError(t, stores.Users.Create(ctx, owner))

	member := &models.User{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: org.ID,
		FirstName:      "Mel",
		LastName:       "Member",
		Email:          "mel@acme.test",
		Role:           models.RoleMember,
		IsActive:       true,
	}
	require.NoError(t, stores.Users.Create(ctx, member))

	project := &models.Project{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: org.ID,
		Name:           "Launch",
		Vision:         "Ship the thing before anyone else does",
		Status:         models.ProjectActive,
		CreatorID:      owner.ID,
	}
	template := &models.StandupTemplate{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: org.ID,
		ProjectID:      project.ID,
		Name:           "Daily Standup",
		Questions:      models.DefaultStandupQuestions(),
		IsDefault:      true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, stores.Projects.Create(ctx, project, template))

	principal := func(u *models.User) *auth.Principal {
		return &auth.Principal{
			UserID:         u.ID,
			OrganizationID: u.OrganizationID,
			Role:           u.Role,
			Email:          u.Email,
		}
	}

	return &fixture{
		engine:  NewEngine(stores.Projects, stores.Standups, stores.Users),
		stores:  stores,
		owner:   principal(owner),
		member:  principal(member),
		project: project,
	}
}

func defaultAnswers() []models.Answer {
	return []models.Answer{
		{QuestionID: "accomplished", Value: "Wrapped up the billing migration"},
		{QuestionID: "today", Value: "Start on the invoice exports"},
	}
}

func TestGetOrCreateTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the project template", func(t *testing.T) {
		f := newFixture(t)

		tmpl, err := f.engine.GetOrCreateTemplate(ctx, f.member, f.project.ID)
		require.NoError(t, err)
		require.Len(t, tmpl.Questions, 3)
		require.Equal(t, "accomplished", tmpl.Questions[0].ID)
	})

	t.Run("creates defaults for a project without one", func(t *testing.T) {
		f := newFixture(t)

		// A project created outside the normal path carries no template.
		bare := &models.Project{
			ID:             uuid.Must(uuid.NewV7()),
			OrganizationID: f.owner.OrganizationID,
			Name:           "Side quest",
			Vision:         "Figure out what the side quest even is",
			Status:         models.ProjectActive,
			CreatorID:      f.owner.UserID,
		}
		orphan := &models.StandupTemplate{
			ID:             uuid.Must(uuid.NewV7()),
			OrganizationID: f.owner.OrganizationID,
			ProjectID:      uuid.Must(uuid.NewV7()), // attached to a different project
		}
		require.NoError(t, f.stores.Projects.Create(ctx, bare, orphan))

		tmpl, err := f.engine.GetOrCreateTemplate(ctx, f.member, bare.ID)
		require.NoError(t, err)
		require.True(t, tmpl.IsDefault)
		require.Len(t, tmpl.Questions, 3)
		require.True(t, tmpl.Questions[0].Required)
		require.False(t, tmpl.Questions[2].Required)
	})

	t.Run("cross-tenant project is not found", func(t *testing.T) {
		f := newFixture(t)

		stranger := &auth.Principal{
			UserID:         uuid.Must(uuid.NewV7()),
			OrganizationID: uuid.Must(uuid.NewV7()),
			Role:           models.RoleOwner,
		}
		_, err := f.engine.GetOrCreateTemplate(ctx, stranger, f.project.ID)
		require.True(t, errs.IsKind(err, errs.KindNotFound))
	})
}

func TestSaveTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("owner replaces the question list wholesale", func(t *testing.T) {
		f := newFixture(t)

		tmpl, err := f.engine.SaveTemplate(ctx, f.owner, f.project.ID, []models.Question{
			{Text: "What shipped?", Type: models.QuestionTextarea, Required: true, Order: 1},
			{ID: "mood", Text: "How are you feeling?", Type: models.QuestionMultipleChoice, Options: []string{"great", "ok", "rough"}, Order: 2},
		})
		require.NoError(t, err)
		require.Len(t, tmpl.Questions, 2)
		require.NotEmpty(t, tmpl.Questions[0].ID)
		require.Equal(t, "mood", tmpl.Questions[1].ID)

		reread, err := f.engine.GetOrCreateTemplate(ctx, f.owner, f.project.ID)
		require.NoError(t, err)
		require.Len(t, reread.Questions, 2)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.SaveTemplate(ctx, f.member, f.project.ID, []models.Question{
			{Text: "What shipped?", Type: models.QuestionTextarea},
		})
		require.True(t, errs.IsKind(err, errs.KindForbidden))
	})

	t.Run("rejects questions without text", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.SaveTemplate(ctx, f.owner, f.project.ID, []models.Question{
			{Text: "   ", Type: models.QuestionText},
		})
		require.True(t, errs.IsKind(err, errs.KindValidation))
	})

	t.Run("rejects multiple choice without options", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.SaveTemplate(ctx, f.owner, f.project.ID, []models.Question{
			{Text: "Pick one", Type: models.QuestionMultipleChoice},
		})
		require.True(t, errs.IsKind(err, errs.KindValidation))
	})
}

func TestSubmitResponse(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

	t.Run("creates the day's standup with a frozen snapshot", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.SubmitResponse(ctx, f.member, f.project.ID, today, defaultAnswers())
		require.NoError(t, err)

		st, err := f.stores.Standups.FindForDate(ctx, f.project.ID, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, st.QuestionsSnapshot, 3)

		// Editing the template afterwards must not change the snapshot.
		_, err = f.engine.SaveTemplate(ctx, f.owner, f.project.ID, []models.Question{
			{Text: "Only one question now", Type: models.QuestionTextarea, Required: true},
		})
		require.NoError(t, err)

		st, err = f.stores.Standups.FindForDate(ctx, f.project.ID, st.Date)
		require.NoError(t, err)
		require.Len(t, st.QuestionsSnapshot, 3)
	})

	t.Run("validates required questions against the snapshot", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.SubmitResponse(ctx, f.member, f.project.ID, today, []models.Answer{
			{QuestionID: "accomplished", Value: "Fixed the flaky deploy"},
		})
		require.True(t, errs.IsKind(err, errs.KindValidation))

		var e *errs.Error
		require.ErrorAs(t, err, &e)
		require.Contains(t, e.Fields, "today")
		require.NotContains(t, e.Fields, "blockers")
	})

	t.Run("rejected submission leaves no standup behind", func(t *testing.T) {
		f := newFixture(t)
		day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

		_, err := f.engine.SubmitResponse(ctx, f.member, f.project.ID, today, []models.Answer{
			{QuestionID: "accomplished", Value: "Fixed the flaky deploy"},
		})
		require.True(t, errs.IsKind(err, errs.KindValidation))

		// The day's standup must not exist, so the snapshot stays unfrozen
		// and later template edits still apply to this date.
		_, err = f.stores.Standups.FindForDate(ctx, f.project.ID, day)
		require.ErrorIs(t, err, store.ErrStandupNotFound)

		_, err = f.engine.SubmitResponse(ctx, f.member, f.project.ID, today, defaultAnswers())
		require.NoError(t, err)

		st, err := f.stores.Standups.FindForDate(ctx, f.project.ID, day)
		require.NoError(t, err)
		require.Len(t, st.QuestionsSnapshot, 3)
	})

	t.Run("resubmission overwrites in place", func(t *testing.T) {
		f := newFixture(t)

		first, err := f.engine.SubmitResponse(ctx, f.member, f.project.ID, today, defaultAnswers())
		require.NoError(t, err)

		answers := defaultAnswers()
		answers[0].Value = "Actually finished the exports too"
		_, err = f.engine.SubmitResponse(ctx, f.member, f.project.ID, today, answers)
		require.NoError(t, err)

		stored, err := f.stores.Standups.GetResponse(ctx, first.StandupID, f.member.UserID)
		require.NoError(t, err)
		require.Equal(t, "Actually finished the exports too", stored.Answers[0].Value)

		all, err := f.stores.Standups.ListResponses(ctx, first.StandupID)
		require.NoError(t, err)
		require.Len(t, all, 1)
	})

	t.Run("two users answer the same standup", func(t *testing.T) {
		f := newFixture(t)

		a, err := f.engine.SubmitResponse(ctx, f.member, f.project.ID, today, defaultAnswers())
		require.NoError(t, err)
		b, err := f.engine.SubmitResponse(ctx, f.owner, f.project.ID, today, defaultAnswers())
		require.NoError(t, err)
		require.Equal(t, a.StandupID, b.StandupID)
	})

	t.Run("enforces multiple choice option membership", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.SaveTemplate(ctx, f.owner, f.project.ID, []models.Question{
			{ID: "mood", Text: "How are you feeling?", Type: models.QuestionMultipleChoice, Required: true, Options: []string{"great", "ok", "rough"}},
		})
		require.NoError(t, err)

		_, err = f.engine.SubmitResponse(ctx, f.member, f.project.ID, today, []models.Answer{
			{QuestionID: "mood", Value: "fantastic"},
		})
		require.True(t, errs.IsKind(err, errs.KindValidation))

		_, err = f.engine.SubmitResponse(ctx, f.member, f.project.ID, today, []models.Answer{
			{QuestionID: "mood", Value: "ok"},
		})
		require.NoError(t, err)
	})

	t.Run("task answers satisfy required via selected tasks", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.SaveTemplate(ctx, f.owner, f.project.ID, []models.Question{
			{ID: "worked-on", Text: "Which tasks did you touch?", Type: models.QuestionTask, Required: true},
		})
		require.NoError(t, err)

		_, err = f.engine.SubmitResponse(ctx, f.member, f.project.ID, today, []models.Answer{
			{QuestionID: "worked-on"},
		})
		require.True(t, errs.IsKind(err, errs.KindValidation))

		_, err = f.engine.SubmitResponse(ctx, f.member, f.project.ID, today, []models.Answer{
			{QuestionID: "worked-on", SelectedTasks: []uuid.UUID{uuid.Must(uuid.NewV7())}},
		})
		require.NoError(t, err)
	})
}

func TestGetTimeline(t *testing.T) {
	ctx := context.Background()

	seedDays := func(t *testing.T, f *fixture, days int) {
		t.Helper()
		base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		for i := 0; i < days; i++ {
			_, err := f.engine.SubmitResponse(ctx, f.member, f.project.ID, base.AddDate(0, 0, i), defaultAnswers())
			require.NoError(t, err)
		}
	}

	t.Run("pages newest first with hasMore", func(t *testing.T) {
		f := newFixture(t)
		seedDays(t, f, 5)

		page, err := f.engine.GetTimeline(ctx, f.member, f.project.ID, 2, 0)
		require.NoError(t, err)
		require.Len(t, page.Entries, 2)
		require.True(t, page.HasMore)
		require.Equal(t, time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC), page.Entries[0].Standup.Date)
		require.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), page.Entries[1].Standup.Date)

		last, err := f.engine.GetTimeline(ctx, f.member, f.project.ID, 2, 4)
		require.NoError(t, err)
		require.Len(t, last.Entries, 1)
		require.False(t, last.HasMore)
	})

	t.Run("expands responses with author names", func(t *testing.T) {
		f := newFixture(t)
		seedDays(t, f, 1)

		page, err := f.engine.GetTimeline(ctx, f.member, f.project.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, page.Entries, 1)
		require.Len(t, page.Entries[0].Responders, 1)
		require.Equal(t, "Mel Member", page.Entries[0].Responders[0].Name)
	})

	t.Run("offset past the end returns an empty page", func(t *testing.T) {
		f := newFixture(t)
		seedDays(t, f, 1)

		page, err := f.engine.GetTimeline(ctx, f.member, f.project.ID, 10, 50)
		require.NoError(t, err)
		require.Empty(t, page.Entries)
		require.False(t, page.HasMore)
	})
}
