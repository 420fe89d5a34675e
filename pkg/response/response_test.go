package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

func TestErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "no response", err: appErrors.Fetch(errors.New("dial"), 0, ""), status: http.StatusBadGateway},
		{name: "upstream 503", err: appErrors.Fetch(nil, http.StatusServiceUnavailable, ""), status: http.StatusBadGateway},
		{name: "upstream 403", err: appErrors.Fetch(nil, http.StatusForbidden, ""), status: http.StatusForbidden},
		{name: "not found", err: appErrors.Clone(appErrors.ErrNotFound, "Not found."), status: http.StatusNotFound},
		{name: "plain error", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			Error(c, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		})
	}
}

func TestErrorCarriesFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	Error(c, appErrors.Validation("rejected", map[string]string{"email": "Invalid email format"}))

	var body struct {
		Error struct {
			Code   string            `json:"code"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "Invalid email format", body.Error.Fields["email"])
}

func TestFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	File(c, "teachers.csv", "text/csv", []byte("a,b\n"))
	assert.Equal(t, `attachment; filename="teachers.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", rec.Body.String())
}
