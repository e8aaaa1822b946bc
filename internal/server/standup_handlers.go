package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/standflow/standflow/internal/auth"
	"github.com/standflow/standflow/internal/models"
)

func (s *Server) handleGetTemplate(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	tmpl, err := s.standups.GetOrCreateTemplate(c.Request.Context(), p, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": newTemplateView(tmpl)})
}

func (s *Server) handleSaveTemplate(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Questions []models.Question `json:"questions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tmpl, err := s.standups.SaveTemplate(c.Request.Context(), p, projectID, req.Questions)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": newTemplateView(tmpl)})
}

func (s *Server) handleSubmitResponse(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Date    string          `json:"date"`
		Answers []models.Answer `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			badRequest(c, err)
			return
		}
		date = parsed
	}

	resp, err := s.standups.SubmitResponse(c.Request.Context(), p, projectID, date, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"standupId":   resp.StandupID,
		"submittedAt": resp.SubmittedAt,
	})
}

func (s *Server) handleGetTimeline(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	timeline, err := s.standups.GetTimeline(c.Request.Context(), p, projectID, pageSize, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]standupView, 0, len(timeline.Entries))
	for i := range timeline.Entries {
		views = append(views, newStandupView(&timeline.Entries[i]))
	}
	c.JSON(http.StatusOK, gin.H{"standups": views, "hasMore": timeline.HasMore})
}

func (s *Server) handleGetStandup(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		badRequest(c, err)
		return
	}

	entry, err := s.standups.GetStandupForDate(c.Request.Context(), p, projectID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"standup": newStandupView(entry)})
}
