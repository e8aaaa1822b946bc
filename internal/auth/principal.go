package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/standflow/standflow/internal/models"
)

const principalKey = "auth.principal"

// Principal identifies the authenticated caller. Every request handler after
// the auth middleware can rely on it being present and belonging to an active
// user.
type Principal struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           models.Role
	Email          string
}

// SetPrincipal stores the principal on the request context.
func SetPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalKey, p)
}

// GetPrincipal retrieves the principal from the request context.
func GetPrincipal(c *gin.Context) (*Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}
