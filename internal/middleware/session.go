package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-client/internal/models"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
	"github.com/noah-isme/sma-adp-client/pkg/response"
)

// ContextSessionKey is the gin context key storing the current session.
const ContextSessionKey = "session"

// SessionReader exposes the signed-in identity.
type SessionReader interface {
	Current() models.Session
}

// RequireSession blocks routes until someone is signed in. A session whose
// access token has visibly expired is treated as signed out.
func RequireSession(sessions SessionReader, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		sess := sessions.Current()
		if !sess.Authenticated() {
			response.Error(c, appErrors.Clone(appErrors.ErrSessionExpired, "please re-authenticate"))
			c.Abort()
			return
		}
		if exp, ok := sess.ExpiresAt(); ok && !now().Before(exp) {
			response.Error(c, appErrors.Clone(appErrors.ErrSessionExpired, "please re-authenticate"))
			c.Abort()
			return
		}
		c.Set(ContextSessionKey, sess)
		c.Next()
	}
}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(c *gin.Context) (models.Session, bool) {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return models.Session{}, false
	}
	sess, ok := value.(models.Session)
	return sess, ok
}
