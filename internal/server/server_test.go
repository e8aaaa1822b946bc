package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/standflow/standflow/internal/auth"
	"github.com/standflow/standflow/internal/logger"
	"github.com/standflow/standflow/internal/store/memory"
	"github.com/stretchr/testify/require"
)

type client struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func newClient(t *testing.T) *client {
	t.Helper()
	issuer, err := auth.NewTokenIssuer("test-secret")
	require.NoError(t, err)

	srv := NewServer(memory.NewStores(), issuer, Config{})
	ts := httptest.NewServer(srv.Handler(logger.Setup(false)))
	t.Cleanup(ts.Close)

	return &client{t: t, server: ts}
}

func (c *client) do(method, path string, body any) (*http.Response, map[string]any) {
	c.t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, c.server.URL+path, &payload)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (c *client) signup(email string) {
	c.t.Helper()
	resp, body := c.do(http.MethodPost, "/api/auth/signup", map[string]any{
		"firstName":        "Olive",
		"lastName":         "Owner",
		"email":            email,
		"password":         "correct-horse",
		"organizationName": "Acme",
	})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)
	c.token = body["token"].(string)
}

func (c *client) createProject(name string) string {
	c.t.Helper()
	resp, body := c.do(http.MethodPost, "/api/projects", map[string]any{
		"name":   name,
		"vision": "Ship the thing before anyone else does",
	})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)
	return body["project"].(map[string]any)["id"].(string)
}

func (c *client) createTarget(projectID string) string {
	c.t.Helper()
	resp, body := c.do(http.MethodPost, "/api/projects/"+projectID+"/targets", map[string]any{
		"title": "MVP",
	})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)
	return body["target"].(map[string]any)["id"].(string)
}

func TestAuthFlow(t *testing.T) {
	c := newClient(t)

	t.Run("unauthenticated requests are rejected", func(t *testing.T) {
		resp, _ := c.do(http.MethodGet, "/api/projects", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("signup then authenticated request", func(t *testing.T) {
		c.signup("olive@acme.test")

		resp, body := c.do(http.MethodGet, "/api/me", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		user := body["user"].(map[string]any)
		require.Equal(t, "olive@acme.test", user["email"])
		require.Equal(t, "OWNER", user["role"])
	})

	t.Run("validation errors carry field detail", func(t *testing.T) {
		fresh := newClient(t)
		resp, body := fresh.do(http.MethodPost, "/api/auth/signup", map[string]any{
			"email": "bad", "password": "short",
		})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		fields := body["fields"].(map[string]any)
		require.Contains(t, fields, "email")
		require.Contains(t, fields, "password")
	})
}

func TestBoardFlow(t *testing.T) {
	c := newClient(t)
	c.signup("olive@acme.test")
	projectID := c.createProject("Launch")
	targetID := c.createTarget(projectID)

	t.Run("board starts with the default columns", func(t *testing.T) {
		resp, body := c.do(http.MethodGet, "/api/targets/"+targetID+"/board", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		columns := body["columns"].([]any)
		require.Len(t, columns, 3)
		require.Equal(t, "todo", columns[0].(map[string]any)["id"])
	})

	t.Run("task lifecycle over the API", func(t *testing.T) {
		resp, body := c.do(http.MethodPost, "/api/targets/"+targetID+"/tasks", map[string]any{
			"title": "Write the launch checklist",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		taskID := body["task"].(map[string]any)["id"].(string)

		resp, body = c.do(http.MethodPost, "/api/tasks/"+taskID+"/move", map[string]any{
			"columnId": "done",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, body["task"].(map[string]any)["completedAt"])

		resp, _ = c.do(http.MethodPost, "/api/tasks/"+taskID+"/move", map[string]any{
			"columnId": "missing",
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("deleting down to one column is refused", func(t *testing.T) {
		for _, id := range []string{"todo", "in-progress"} {
			resp, _ := c.do(http.MethodDelete, fmt.Sprintf("/api/targets/%s/columns/%s", targetID, id), nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}
		resp, _ := c.do(http.MethodDelete, "/api/targets/"+targetID+"/columns/done", nil)
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("cross-tenant access is indistinguishable from missing", func(t *testing.T) {
		other := newClient(t)
		other.signup("rival@other.test")
		resp, _ := other.do(http.MethodGet, "/api/targets/"+targetID+"/board", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestStandupFlow(t *testing.T) {
	c := newClient(t)
	c.signup("olive@acme.test")
	projectID := c.createProject("Launch")

	t.Run("template is created on first read", func(t *testing.T) {
		resp, body := c.do(http.MethodGet, "/api/projects/"+projectID+"/standup/template", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		questions := body["template"].(map[string]any)["questions"].([]any)
		require.Len(t, questions, 3)
	})

	t.Run("submit and read back the timeline", func(t *testing.T) {
		resp, _ := c.do(http.MethodPost, "/api/projects/"+projectID+"/standups/responses", map[string]any{
			"date": "2025-06-02",
			"answers": []map[string]any{
				{"questionId": "accomplished", "value": "Wrapped up the billing migration"},
				{"questionId": "today", "value": "Start on the invoice exports"},
			},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body := c.do(http.MethodGet, "/api/projects/"+projectID+"/standups?limit=10&offset=0", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		standups := body["standups"].([]any)
		require.Len(t, standups, 1)
		require.Equal(t, false, body["hasMore"])

		first := standups[0].(map[string]any)
		require.Equal(t, "2025-06-02", first["date"])
		responses := first["responses"].([]any)
		require.Len(t, responses, 1)
		require.Equal(t, "Olive Owner", responses[0].(map[string]any)["userName"])
	})

	t.Run("missing required answers name the questions", func(t *testing.T) {
		resp, body := c.do(http.MethodPost, "/api/projects/"+projectID+"/standups/responses", map[string]any{
			"date":    "2025-06-03",
			"answers": []map[string]any{{"questionId": "accomplished", "value": "Just this"}},
		})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		fields := body["fields"].(map[string]any)
		require.Contains(t, fields, "today")
	})
}
