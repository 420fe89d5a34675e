package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the request id on inbound and outbound calls.
const Header = "X-Request-ID"

const contextKey = "request_id"

type ctxKey struct{}

// Middleware assigns a unique request ID to each incoming HTTP request and
// stores it on the request context so outbound API calls reuse it.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(Header)
		if reqID == "" {
			reqID = NewID()
		}

		c.Set(contextKey, reqID)
		c.Writer.Header().Set(Header, reqID)
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), reqID))

		c.Next()
	}
}

// Value returns the request ID stored in the Gin context.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithContext returns a context carrying the request id.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request id stored on ctx, or a fresh one.
func FromContext(ctx context.Context) string {
	if ctx != nil {
		if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
			return id
		}
	}
	return NewID()
}

// NewID generates a random request id.
func NewID() string {
	return uuid.NewString()
}
