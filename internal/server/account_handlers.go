package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/standflow/standflow/internal/account"
	"github.com/standflow/standflow/internal/auth"
	"github.com/standflow/standflow/internal/models"
)

// setSessionCookie attaches the signed token to the response so browser
// clients stay signed in without handling the token themselves.
func setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, token, int(auth.TokenTTL.Seconds()), "/", "", false, true)
}

func (s *Server) handleSignup(c *gin.Context) {
	var req struct {
		FirstName        string `json:"firstName"`
		LastName         string `json:"lastName"`
		Email            string `json:"email"`
		Password         string `json:"password"`
		OrganizationName string `json:"organizationName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := s.accounts.Signup(c.Request.Context(), account.SignupParams{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Password:         req.Password,
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	setSessionCookie(c, session.Token)
	c.JSON(http.StatusCreated, newSessionView(session))
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := s.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	setSessionCookie(c, session.Token)
	c.JSON(http.StatusOK, newSessionView(session))
}

func (s *Server) handleLogout(c *gin.Context) {
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}

func (s *Server) handleMe(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	user, err := s.users.Get(c.Request.Context(), p.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserView(user)})
}

func (s *Server) handleGetOrganization(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	org, err := s.accounts.GetOrganization(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": newOrganizationView(org)})
}

func (s *Server) handleUpdateOrganization(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	var req struct {
		Name     *string                      `json:"name"`
		Domain   *string                      `json:"domain"`
		Settings *models.OrganizationSettings `json:"settings"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	org, err := s.accounts.UpdateOrganization(c.Request.Context(), p, account.OrganizationUpdate{
		Name:     req.Name,
		Domain:   req.Domain,
		Settings: req.Settings,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": newOrganizationView(org)})
}

func (s *Server) handleListMembers(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	members, err := s.accounts.ListMembers(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]userView, 0, len(members))
	for _, m := range members {
		views = append(views, newUserView(m))
	}
	c.JSON(http.StatusOK, gin.H{"members": views})
}

func (s *Server) handleUpdateMemberRole(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.accounts.UpdateMemberRole(c.Request.Context(), p, userID, models.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": newUserView(user)})
}

func (s *Server) handleRemoveMember(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := s.accounts.RemoveMember(c.Request.Context(), p, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (s *Server) handleListInvitations(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	invs, err := s.accounts.ListInvitations(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]invitationView, 0, len(invs))
	for _, inv := range invs {
		views = append(views, newInvitationView(inv))
	}
	c.JSON(http.StatusOK, gin.H{"invitations": views})
}

func (s *Server) handleInviteMember(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	inv, err := s.accounts.InviteMember(c.Request.Context(), p, req.Email, models.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invitation": newInvitationView(inv)})
}

func (s *Server) handleCancelInvitation(c *gin.Context) {
	p, _ := auth.GetPrincipal(c)
	invID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := s.accounts.CancelInvitation(c.Request.Context(), p, invID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (s *Server) handleAcceptInvitation(c *gin.Context) {
	var req struct {
		Token     string `json:"token"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Password  string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := s.accounts.AcceptInvitation(c.Request.Context(), account.AcceptParams{
		Token:     req.Token,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	setSessionCookie(c, session.Token)
	c.JSON(http.StatusCreated, newSessionView(session))
}
