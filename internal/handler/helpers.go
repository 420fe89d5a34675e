package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/query"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

// rosterFilter reads search, page and limit from the query string. Bad
// numbers fall back to the service defaults.
func rosterFilter(c *gin.Context) models.RosterFilter {
	filter := models.RosterFilter{Search: strings.TrimSpace(c.Query("search"))}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	return filter
}

func wantsRefresh(c *gin.Context) bool {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	return refresh
}

func intParam(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

func invalidPayload(err error, what string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+what+" payload")
}

// pageMeta reports where a roster page came from so screens can show a
// stale badge while a background refetch runs.
func pageMeta(status query.Status, stale, fromCache bool, fetchedAt *time.Time) map[string]interface{} {
	meta := map[string]interface{}{
		"status":     status,
		"stale":      stale,
		"from_cache": fromCache,
	}
	if fetchedAt != nil {
		meta["fetched_at"] = fetchedAt.UTC().Format(time.RFC3339)
	}
	return meta
}

func exportFormat(c *gin.Context) models.ExportFormat {
	return models.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(models.ExportFormatCSV))))
}
