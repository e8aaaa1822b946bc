// Package server exposes the engines over a JSON HTTP API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/standflow/standflow/internal/account"
	"github.com/standflow/standflow/internal/auth"
	"github.com/standflow/standflow/internal/dashboard"
	"github.com/standflow/standflow/internal/kanban"
	"github.com/standflow/standflow/internal/logger"
	"github.com/standflow/standflow/internal/project"
	"github.com/standflow/standflow/internal/standup"
	"github.com/standflow/standflow/internal/store"
)

// Config carries the server's runtime options.
type Config struct {
	// CORSAllowedOrigins lists origins allowed to call the API from a
	// browser. Empty disables cross-origin access.
	CORSAllowedOrigins []string
}

// Server wires the services behind the HTTP API.
type Server struct {
	accounts  *account.Service
	projects  *project.Service
	boards    *kanban.Engine
	standups  *standup.Engine
	dashboard *dashboard.Service
	issuer    *auth.TokenIssuer
	users     store.UserStore
	config    Config
}

// NewServer creates a server over the given stores.
func NewServer(stores *store.Stores, issuer *auth.TokenIssuer, config Config) *Server {
	return &Server{
		accounts:  account.NewService(stores.Organizations, stores.Users, stores.Invitations, issuer),
		projects:  project.NewService(stores.Projects, stores.Targets, stores.Tasks),
		boards:    kanban.NewEngine(stores.Targets, stores.Tasks, stores.Users),
		standups:  standup.NewEngine(stores.Projects, stores.Standups, stores.Users),
		dashboard: dashboard.NewService(stores.Projects, stores.Targets, stores.Tasks, stores.Users, stores.Standups),
		issuer:    issuer,
		users:     stores.Users,
		config:    config,
	}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler(log zerolog.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.NewRequests(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/invitations/accept", s.handleAcceptInvitation)

	authed := api.Group("", auth.Middleware(s.issuer, s.users))
	{
		authed.POST("/auth/logout", s.handleLogout)
		authed.GET("/me", s.handleMe)

		authed.GET("/organization", s.handleGetOrganization)
		authed.PUT("/organization", s.handleUpdateOrganization)

		authed.GET("/members", s.handleListMembers)
		authed.PUT("/members/:id/role", s.handleUpdateMemberRole)
		authed.DELETE("/members/:id", s.handleRemoveMember)

		authed.GET("/invitations", s.handleListInvitations)
		authed.POST("/invitations", s.handleInviteMember)
		authed.DELETE("/invitations/:id", s.handleCancelInvitation)

		authed.GET("/projects", s.handleListProjects)
		authed.POST("/projects", s.handleCreateProject)
		authed.GET("/projects/:id", s.handleGetProject)
		authed.PUT("/projects/:id", s.handleUpdateProject)
		authed.POST("/projects/:id/archive", s.handleArchiveProject)

		authed.GET("/projects/:id/targets", s.handleListTargets)
		authed.POST("/projects/:id/targets", s.handleCreateTarget)

		authed.GET("/targets/:id/board", s.handleGetBoard)
		authed.POST("/targets/:id/columns", s.handleCreateColumn)
		authed.PUT("/targets/:id/columns/:columnId", s.handleUpdateColumn)
		authed.DELETE("/targets/:id/columns/:columnId", s.handleDeleteColumn)
		authed.POST("/targets/:id/tasks", s.handleCreateTask)

		authed.PUT("/tasks/:id", s.handleUpdateTask)
		authed.POST("/tasks/:id/move", s.handleMoveTask)
		authed.POST("/tasks/:id/assign", s.handleAssignTask)

		authed.GET("/projects/:id/standup/template", s.handleGetTemplate)
		authed.PUT("/projects/:id/standup/template", s.handleSaveTemplate)
		authed.POST("/projects/:id/standups/responses", s.handleSubmitResponse)
		authed.GET("/projects/:id/standups", s.handleGetTimeline)
		authed.GET("/projects/:id/standups/:date", s.handleGetStandup)

		authed.GET("/dashboard", s.handleGetDashboard)
	}

	if len(s.config.CORSAllowedOrigins) == 0 {
		return router
	}

	return cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(router)
}
