package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-adp-client/internal/models"
)

type staticSessions struct{ session models.Session }

func (s staticSessions) Current() models.Session { return s.session }

type recordingObserver struct {
	method, path string
	status       int
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	r.method, r.path, r.status = method, path, status
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}).SignedString([]byte("test"))
	require.NoError(t, err)
	return token
}

func guarded(sessions SessionReader, now func() time.Time) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/teachers", RequireSession(sessions, now), func(c *gin.Context) {
		sess, ok := SessionFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, sess.User.Email)
	})
	return r
}

func TestRequireSession(t *testing.T) {
	now := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	user := &models.User{Email: "admin@sma.sch.id", Organization: 1}

	tests := []struct {
		name    string
		session models.Session
		status  int
	}{
		{name: "signed out", session: models.Session{}, status: http.StatusUnauthorized},
		{name: "opaque token", session: models.Session{User: user, AccessToken: "opaque"}, status: http.StatusOK},
		{name: "live jwt", session: models.Session{User: user, AccessToken: signedToken(t, now.Add(time.Hour))}, status: http.StatusOK},
		{name: "expired jwt", session: models.Session{User: user, AccessToken: signedToken(t, now.Add(-time.Minute))}, status: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			guarded(staticSessions{tc.session}, func() time.Time { return now }).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teachers", nil))
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), "SESSION_EXPIRED")
				assert.Contains(t, rec.Body.String(), "please re-authenticate")
			}
		})
	}
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obs := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/teachers/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teachers/42", nil))
	assert.Equal(t, "/teachers/:id", obs.path)
	assert.Equal(t, http.StatusTeapot, obs.status)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/1", nil))
	assert.Equal(t, "unmatched", obs.path)
}

func TestAuditRecordsSuccessfulWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	sessions := staticSessions{session: models.Session{User: &models.User{Email: "admin@sma.sch.id", Organization: 3}, AccessToken: "opaque"}}

	r := gin.New()
	group := r.Group("", RequireSession(sessions, nil), Audit(zap.New(core)))
	group.GET("/teachers", func(c *gin.Context) { c.Status(http.StatusOK) })
	group.PUT("/teachers/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	group.DELETE("/students/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/teachers", nil),
		httptest.NewRequest(http.MethodPut, "/teachers/4", nil),
		httptest.NewRequest(http.MethodDelete, "/students/S-1", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.FilterMessage("console_audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/teachers/:id", fields["route"])
	assert.Equal(t, "4", fields["resource_id"])
	assert.Equal(t, "admin@sma.sch.id", fields["email"])
	assert.EqualValues(t, 3, fields["organization"])
}
