package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/standflow/standflow/internal/store"
)

// SessionCookie is the cookie the login handler sets and the middleware reads.
const SessionCookie = "auth-token"

func tokenFromRequest(c *gin.Context) (string, bool) {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, true
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		return token, true
	}
	return "", false
}

// Middleware returns a gin middleware that authenticates requests via the
// session cookie or a Bearer token. The user row is reloaded on every request
// so role changes and deactivation take effect immediately, not at token
// expiry.
func Middleware(issuer *TokenIssuer, users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := tokenFromRequest(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		principal, err := issuer.Verify(token)
		if err != nil {
			log.Debug().Err(err).Msg("Token verification failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		user, err := users.Get(c.Request.Context(), principal.UserID)
		if err != nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		SetPrincipal(c, &Principal{
			UserID:         user.ID,
			OrganizationID: user.OrganizationID,
			Role:           user.Role,
			Email:          user.Email,
		})

		c.Next()
	}
}
