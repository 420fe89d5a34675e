package cors

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-client/pkg/config"
)

// policy is the precomputed header set for one CORSConfig.
type policy struct {
	anyOrigin   bool
	origins     map[string]struct{}
	credentials bool
	headers     http.Header
}

func newPolicy(cfg config.CORSConfig) policy {
	p := policy{
		anyOrigin:   len(cfg.AllowedOrigins) == 0,
		origins:     make(map[string]struct{}, len(cfg.AllowedOrigins)),
		credentials: cfg.AllowCredentials,
		headers:     http.Header{},
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			p.anyOrigin = true
			continue
		}
		p.origins[normalize(origin)] = struct{}{}
	}

	p.headers.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	if len(cfg.AllowedHeaders) > 0 {
		p.headers.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
	}
	if len(cfg.ExposedHeaders) > 0 {
		p.headers.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposedHeaders, ", "))
	}
	if cfg.MaxAge > 0 {
		p.headers.Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds())))
	}
	if cfg.AllowCredentials {
		p.headers.Set("Access-Control-Allow-Credentials", "true")
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when the origin is refused. Credentialed responses never use "*".
func (p policy) allowOrigin(origin string) string {
	if origin == "" {
		if p.anyOrigin && !p.credentials {
			return "*"
		}
		return ""
	}
	if p.anyOrigin {
		return origin
	}
	if _, ok := p.origins[normalize(origin)]; ok {
		return origin
	}
	return ""
}

// New returns the CORS middleware for the console. Preflight requests are
// answered here and never reach the session guard.
func New(cfg config.CORSConfig) gin.HandlerFunc {
	p := newPolicy(cfg)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		allowed := p.allowOrigin(c.GetHeader("Origin"))
		if allowed != "" {
			h.Set("Access-Control-Allow-Origin", allowed)
			for name, values := range p.headers {
				h[name] = values
			}
		}

		if c.Request.Method == http.MethodOptions {
			if allowed == "" && c.GetHeader("Origin") != "" {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(origin, "/"))
}
