package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/standflow/standflow/internal/auth"
	"github.com/standflow/standflow/internal/models"
	"github.com/standflow/standflow/internal/project"
)

func (s *Server) handleListProjects(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	summaries, err := s.projects.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]projectSummaryView, 0, len(summaries))
	for _, summary := range summaries {
		views = append(views, newProjectSummaryView(summary))
	}
	c.JSON(http.StatusOK, gin.H{"projects": views})
}

func (s *Server) handleCreateProject(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	var req struct {
		Name        string  `json:"name"`
		Vision      string  `json:"vision"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	created, err := s.projects.Create(c.Request.Context(), p, project.CreateParams{
		Name:        req.Name,
		Vision:      req.Vision,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": newProjectView(created)})
}

func (s *Server) handleGetProject(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	proj, err := s.projects.Get(c.Request.Context(), p, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": newProjectView(proj)})
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Vision      *string `json:"vision"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	params := project.UpdateParams{
		Name:        req.Name,
		Vision:      req.Vision,
		Description: req.Description,
	}
	if req.Status != nil {
		status := models.ProjectStatus(*req.Status)
		params.Status = &status
	}

	updated, err := s.projects.Update(c.Request.Context(), p, projectID, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": newProjectView(updated)})
}

func (s *Server) handleArchiveProject(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := s.projects.Archive(c.Request.Context(), p, projectID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "archived"})
}

func (s *Server) handleListTargets(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	targets, err := s.projects.ListTargets(c.Request.Context(), p, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]targetView, 0, len(targets))
	for _, target := range targets {
		views = append(views, newTargetView(target))
	}
	c.JSON(http.StatusOK, gin.H{"targets": views})
}

func (s *Server) handleCreateTarget(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	target, err := s.projects.CreateTarget(c.Request.Context(), p, projectID, project.TargetParams{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"target": newTargetView(target)})
}

func (s *Server) handleGetDashboard(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	overview, err := s.dashboard.GetOverview(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	due := make([]taskView, 0, len(overview.DueSoon))
	for _, task := range overview.DueSoon {
		due = append(due, newTaskView(task, nil))
	}

	c.JSON(http.StatusOK, gin.H{
		"activeProjects":    overview.ActiveProjects,
		"completedProjects": overview.CompletedProjects,
		"archivedProjects":  overview.ArchivedProjects,
		"members":           overview.Members,
		"openTasks":         overview.OpenTasks,
		"completedTasks":    overview.CompletedTasks,
		"standupsToday":     overview.StandupsToday,
		"dueSoon":           due,
	})
}
