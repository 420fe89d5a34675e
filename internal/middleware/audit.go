package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/pkg/middleware/requestid"
)

// Audit logs every successful roster write together with the account that
// made it. Reads are not recorded. Place it after RequireSession.
func Audit(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return
		}
		if c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("resource_id", c.Param("id")),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
		}
		if sess, ok := SessionFromContext(c); ok && sess.User != nil {
			fields = append(fields, zap.String("email", sess.User.Email), zap.Int("organization", sess.OrganizationID()))
		}
		if id := requestid.Value(c); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		logger.Info("console_audit", fields...)
	}
}
