package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/auth"
	"github.com/standflow/standflow/internal/kanban"
	"github.com/standflow/standflow/internal/models"
)

func (s *Server) handleGetBoard(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	targetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	board, err := s.boards.GetBoard(c.Request.Context(), p, targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBoardView(board))
}

func (s *Server) handleCreateColumn(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	targetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name     string `json:"name"`
		Color    string `json:"color"`
		DotColor string `json:"dotColor"`
		Order    *int   `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	column, err := s.boards.CreateColumn(c.Request.Context(), p, targetID, kanban.CreateColumnParams{
		Name:     req.Name,
		Color:    req.Color,
		DotColor: req.DotColor,
		Order:    req.Order,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"column": column})
}

func (s *Server) handleUpdateColumn(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	targetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name     *string `json:"name"`
		Color    *string `json:"color"`
		DotColor *string `json:"dotColor"`
		Order    *int    `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	column, err := s.boards.UpdateColumn(c.Request.Context(), p, targetID, c.Param("columnId"), kanban.UpdateColumnParams{
		Name:     req.Name,
		Color:    req.Color,
		DotColor: req.DotColor,
		Order:    req.Order,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"column": column})
}

func (s *Server) handleDeleteColumn(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	targetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := s.boards.DeleteColumn(c.Request.Context(), p, targetID, c.Param("columnId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	targetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title       string     `json:"title"`
		Description *string    `json:"description"`
		Priority    string     `json:"priority"`
		ColumnID    string     `json:"columnId"`
		DueDate     *time.Time `json:"dueDate"`
		AssigneeID  *uuid.UUID `json:"assigneeId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := s.boards.CreateTask(c.Request.Context(), p, targetID, kanban.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.Priority(req.Priority),
		ColumnID:    req.ColumnID,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": newTaskView(task, nil)})
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Priority    *string    `json:"priority"`
		DueDate     *time.Time `json:"dueDate"`
		ClearDue    bool       `json:"clearDueDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	params := kanban.UpdateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		ClearDue:    req.ClearDue,
	}
	if req.Priority != nil {
		priority := models.Priority(*req.Priority)
		params.Priority = &priority
	}

	task, err := s.boards.UpdateTask(c.Request.Context(), p, taskID, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": newTaskView(task, nil)})
}

func (s *Server) handleMoveTask(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ColumnID string `json:"columnId"`
		Order    *int   `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := s.boards.MoveTask(c.Request.Context(), p, taskID, req.ColumnID, req.Order)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": newTaskView(task, nil)})
}

func (s *Server) handleAssignTask(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	taskID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		AssigneeID *uuid.UUID `json:"assigneeId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := s.boards.AssignTask(c.Request.Context(), p, taskID, req.AssigneeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": newTaskView(task, nil)})
}
