package kanban

import (
	"context"
	"strings"
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
	engine    *Engine
	stores    *store.Stores
	principal *auth.Principal
	target    *models.Target
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

	user := &models.User{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: org.ID,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@acme.test",
		Role:           models.RoleMember,
		IsActive:       true,
	}
	require.NoError(t, stores.Users.Create(ctx, user))

	project := &models.Project{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: org.ID,
		Name:           "Launch",
		Vision:         "Ship the thing before anyone else does",
		Status:         models.ProjectActive,
		CreatorID:      user.ID,
	}
	template := &models.StandupTemplate{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: org.ID,
		ProjectID:      project.ID,
		Name:           "Daily Standup",
		Questions:      models.DefaultStandupQuestions(),
		IsDefault:      true,
	}
	require.NoError(t, stores.Projects.Create(ctx, project, template))

	target := &models.Target{
		ID:        uuid.Must(uuid.NewV7()),
		ProjectID: project.ID,
		Title:     "MVP",
		Status:    models.TargetActive,
		Columns:   models.DefaultColumns(),
	}
	require.NoError(t, stores.Targets.Create(ctx, target))

	return &fixture{
		engine: NewEngine(stores.Targets, stores.Tasks, stores.Users),
		stores: stores,
		principal: &auth.Principal{
			UserID:         user.ID,
			OrganizationID: org.ID,
			Role:           user.Role,
			Email:          user.Email,
		},
		target: target,
	}
}

func (f *fixture) createTask(t *testing.T, columnID string) *models.Task {
	t.Helper()
	task, err := f.engine.CreateTask(context.Background(), f.principal, f.target.ID, CreateTaskParams{
		Title:    "Write the launch checklist",
		ColumnID: columnID,
	})
	require.NoError(t, err)
	return task
}

func otherOrgPrincipal() *auth.Principal {
	return &auth.Principal{
		UserID:         uuid.Must(uuid.NewV7()),
		OrganizationID: uuid.Must(uuid.NewV7()),
		Role:           models.RoleOwner,
	}
}

func TestGetBoard(t *testing.T) {
	ctx := context.Background()

	t.Run("returns columns sorted by order", func(t *testing.T) {
		f := newFixture(t)

		board, err := f.engine.GetBoard(ctx, f.principal, f.target.ID)
		require.NoError(t, err)
		require.Len(t, board.Columns, 3)
		require.Equal(t, "todo", board.Columns[0].ID)
		require.Equal(t, "in-progress", board.Columns[1].ID)
		require.Equal(t, "done", board.Columns[2].ID)
	})

	t.Run("tie on order keeps insertion sequence", func(t *testing.T) {
		f := newFixture(t)

		zero := 0
		first, err := f.engine.CreateColumn(ctx, f.principal, f.target.ID, CreateColumnParams{Name: "Review", Order: &zero})
		require.NoError(t, err)
		second, err := f.engine.CreateColumn(ctx, f.principal, f.target.ID, CreateColumnParams{Name: "Blocked", Order: &zero})
		require.NoError(t, err)

		board, err := f.engine.GetBoard(ctx, f.principal, f.target.ID)
		require.NoError(t, err)
		require.Equal(t, "todo", board.Columns[0].ID)
		require.Equal(t, first.ID, board.Columns[1].ID)
		require.Equal(t, second.ID, board.Columns[2].ID)
	})

	t.Run("resolves assignee names", func(t *testing.T) {
		f := newFixture(t)
		task := f.createTask(t, "todo")

		_, err := f.engine.AssignTask(ctx, f.principal, task.ID, &f.principal.UserID)
		require.NoError(t, err)

		board, err := f.engine.GetBoard(ctx, f.principal, f.target.ID)
		require.NoError(t, err)
		require.Len(t, board.Tasks, 1)
		require.NotNil(t, board.Tasks[0].Assignee)
		require.Equal(t, "Ada Lovelace", board.Tasks[0].Assignee.Name)
	})

	t.Run("cross-tenant target is not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.GetBoard(ctx, otherOrgPrincipal(), f.target.ID)
		require.True(t, errs.IsKind(err, errs.KindNotFound))
	})
}

func TestCreateColumn(t *testing.T) {
	ctx := context.Background()

	t.Run("appends after the highest order", func(t *testing.T) {
		f := newFixture(t)

		col, err := f.engine.CreateColumn(ctx, f.principal, f.target.ID, CreateColumnParams{Name: "  Review  "})
		require.NoError(t, err)
		require.Equal(t, "Review", col.Name)
		require.Equal(t, 3, col.Order)
		require.Contains(t, col.ID, "column_")

		board, err := f.engine.GetBoard(ctx, f.principal, f.target.ID)
		require.NoError(t, err)
		require.Len(t, board.Columns, 4)
		require.Equal(t, col.ID, board.Columns[3].ID)
	})

	t.Run("rejects empty and oversized names", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.CreateColumn(ctx, f.principal, f.target.ID, CreateColumnParams{Name: "   "})
		require.True(t, errs.IsKind(err, errs.KindValidation))

		long := make([]byte, 51)
		for i := range long {
			long[i] = 'x'
		}
		_, err = f.engine.CreateColumn(ctx, f.principal, f.target.ID, CreateColumnParams{Name: string(long)})
		require.True(t, errs.IsKind(err, errs.KindValidation))
	})

	t.Run("name limits count characters, not bytes", func(t *testing.T) {
		f := newFixture(t)

		// 20 katakana runes, 60 bytes in UTF-8.
		name := strings.Repeat("レビュー", 5)
		col, err := f.engine.CreateColumn(ctx, f.principal, f.target.ID, CreateColumnParams{Name: name})
		require.NoError(t, err)
		require.Equal(t, name, col.Name)

		_, err = f.engine.CreateColumn(ctx, f.principal, f.target.ID, CreateColumnParams{Name: strings.Repeat("列", 51)})
		require.True(t, errs.IsKind(err, errs.KindValidation))
	})

	t.Run("applies default colors", func(t *testing.T) {
		f := newFixture(t)

		col, err := f.engine.CreateColumn(ctx, f.principal, f.target.ID, CreateColumnParams{Name: "Review"})
		require.NoError(t, err)
		require.Equal(t, "bg-gray-50", col.Color)
		require.Equal(t, "bg-gray-400", col.DotColor)
	})
}

func TestUpdateColumn(t *testing.T) {
	ctx := context.Background()

	t.Run("merges partial fields", func(t *testing.T) {
		f := newFixture(t)

		name := "Doing"
		col, err := f.engine.UpdateColumn(ctx, f.principal, f.target.ID, "in-progress", UpdateColumnParams{Name: &name})
		require.NoError(t, err)
		require.Equal(t, "Doing", col.Name)
		require.Equal(t, "bg-blue-50", col.Color)
	})

	t.Run("order change re-sorts the board", func(t *testing.T) {
		f := newFixture(t)

		order := 10
		_, err := f.engine.UpdateColumn(ctx, f.principal, f.target.ID, "todo", UpdateColumnParams{Order: &order})
		require.NoError(t, err)

		board, err := f.engine.GetBoard(ctx, f.principal, f.target.ID)
		require.NoError(t, err)
		require.Equal(t, "todo", board.Columns[2].ID)
	})

	t.Run("unknown column is not found", func(t *testing.T) {
		f := newFixture(t)

		name := "Doing"
		_, err := f.engine.UpdateColumn(ctx, f.principal, f.target.ID, "missing", UpdateColumnParams{Name: &name})
		require.True(t, errs.IsKind(err, errs.KindNotFound))
	})
}

func TestDeleteColumn(t *testing.T) {
	ctx := context.Background()

	t.Run("reassigns tasks to the lowest-order remaining column", func(t *testing.T) {
		f := newFixture(t)
		task := f.createTask(t, "in-progress")

		require.NoError(t, f.engine.DeleteColumn(ctx, f.principal, f.target.ID, "in-progress"))

		board, err := f.engine.GetBoard(ctx, f.principal, f.target.ID)
		require.NoError(t, err)
		require.Len(t, board.Columns, 2)

		moved, err := f.stores.Tasks.Get(ctx, f.principal.OrganizationID, task.ID)
		require.NoError(t, err)
		require.Equal(t, "todo", moved.ColumnID)
	})

	t.Run("refuses to delete the last column", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.engine.DeleteColumn(ctx, f.principal, f.target.ID, "todo"))
		require.NoError(t, f.engine.DeleteColumn(ctx, f.principal, f.target.ID, "in-progress"))

		err := f.engine.DeleteColumn(ctx, f.principal, f.target.ID, "done")
		require.True(t, errs.IsKind(err, errs.KindInvalidOperation))
	})

	t.Run("unknown column is not found", func(t *testing.T) {
		f := newFixture(t)

		err := f.engine.DeleteColumn(ctx, f.principal, f.target.ID, "missing")
		require.True(t, errs.IsKind(err, errs.KindNotFound))
	})

	t.Run("unknown column on a single-column board is still not found", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.engine.DeleteColumn(ctx, f.principal, f.target.ID, "todo"))
		require.NoError(t, f.engine.DeleteColumn(ctx, f.principal, f.target.ID, "in-progress"))

		err := f.engine.DeleteColumn(ctx, f.principal, f.target.ID, "missing")
		require.True(t, errs.IsKind(err, errs.KindNotFound))
	})
}

func TestMoveTask(t *testing.T) {
	ctx := context.Background()

	t.Run("moves between columns", func(t *testing.T) {
		f := newFixture(t)
		task := f.createTask(t, "todo")

		order := 5
		moved, err := f.engine.MoveTask(ctx, f.principal, task.ID, "in-progress", &order)
		require.NoError(t, err)
		require.Equal(t, "in-progress", moved.ColumnID)
		require.Equal(t, 5, moved.Order)
	})

	t.Run("rejects a column not on the board", func(t *testing.T) {
		f := newFixture(t)
		task := f.createTask(t, "todo")

		_, err := f.engine.MoveTask(ctx, f.principal, task.ID, "missing", nil)
		require.True(t, errs.IsKind(err, errs.KindInvalidOperation))
	})

	t.Run("stamps completion on done and clears it on the way back", func(t *testing.T) {
		f := newFixture(t)
		task := f.createTask(t, "todo")

		moved, err := f.engine.MoveTask(ctx, f.principal, task.ID, "done", nil)
		require.NoError(t, err)
		require.NotNil(t, moved.CompletedAt)
		require.WithinDuration(t, time.Now(), *moved.CompletedAt, time.Minute)

		back, err := f.engine.MoveTask(ctx, f.principal, task.ID, "todo", nil)
		require.NoError(t, err)
		require.Nil(t, back.CompletedAt)
	})

	t.Run("cross-tenant task is not found", func(t *testing.T) {
		f := newFixture(t)
		task := f.createTask(t, "todo")

		_, err := f.engine.MoveTask(ctx, otherOrgPrincipal(), task.ID, "done", nil)
		require.True(t, errs.IsKind(err, errs.KindNotFound))
	})
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to the first column and medium priority", func(t *testing.T) {
		f := newFixture(t)

		task, err := f.engine.CreateTask(ctx, f.principal, f.target.ID, CreateTaskParams{Title: "Draft the announcement"})
		require.NoError(t, err)
		require.Equal(t, "todo", task.ColumnID)
		require.Equal(t, models.PriorityMedium, task.Priority)
	})

	t.Run("orders tasks within a column", func(t *testing.T) {
		f := newFixture(t)

		first := f.createTask(t, "todo")
		second := f.createTask(t, "todo")
		require.Equal(t, 0, first.Order)
		require.Equal(t, 1, second.Order)
	})

	t.Run("rejects short titles", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.engine.CreateTask(ctx, f.principal, f.target.ID, CreateTaskParams{Title: "ab"})
		require.True(t, errs.IsKind(err, errs.KindValidation))
	})

	t.Run("rejects an assignee from another organization", func(t *testing.T) {
		f := newFixture(t)

		stranger := uuid.Must(uuid.NewV7())
		_, err := f.engine.CreateTask(ctx, f.principal, f.target.ID, CreateTaskParams{
			Title:      "Draft the announcement",
			AssigneeID: &stranger,
		})
		require.True(t, errs.IsKind(err, errs.KindValidation))
	})
}

func TestAssignTask(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns and clears", func(t *testing.T) {
		f := newFixture(t)
		task := f.createTask(t, "todo")

		assigned, err := f.engine.AssignTask(ctx, f.principal, task.ID, &f.principal.UserID)
		require.NoError(t, err)
		require.NotNil(t, assigned.AssigneeID)

		cleared, err := f.engine.AssignTask(ctx, f.principal, task.ID, nil)
		require.NoError(t, err)
		require.Nil(t, cleared.AssigneeID)
	})
}
