package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-client/internal/service"
	"github.com/noah-isme/sma-adp-client/pkg/response"
)

type cacheService interface {
	Status() service.CacheStatus
	Invalidate(entity string) int
	Clear(ctx context.Context) error
	Persist(ctx context.Context) error
}

// CacheHandler exposes the query cache for diagnostics.
type CacheHandler struct {
	cache cacheService
}

// NewCacheHandler constructs a cache handler.
func NewCacheHandler(cache cacheService) *CacheHandler {
	return &CacheHandler{cache: cache}
}

// Status godoc
// @Summary Inspect cached queries
// @Tags Cache
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cache [get]
func (h *CacheHandler) Status(c *gin.Context) {
	status := h.cache.Status()
	response.JSON(c, http.StatusOK, status, nil, map[string]interface{}{"entries": len(status.Entries)})
}

// Invalidate godoc
// @Summary Mark cached queries stale
// @Tags Cache
// @Produce json
// @Param entity query string false "teachers, students or parents; empty marks everything"
// @Success 200 {object} response.Envelope
// @Router /cache/invalidate [post]
func (h *CacheHandler) Invalidate(c *gin.Context) {
	entity := strings.TrimSpace(c.Query("entity"))
	n := h.cache.Invalidate(entity)
	response.JSON(c, http.StatusOK, gin.H{"entity": entity, "invalidated": n}, nil)
}

// Persist godoc
// @Summary Write the cache snapshot to storage
// @Tags Cache
// @Success 204
// @Router /cache/persist [post]
func (h *CacheHandler) Persist(c *gin.Context) {
	if err := h.cache.Persist(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Clear godoc
// @Summary Drop every cached query
// @Tags Cache
// @Success 204
// @Router /cache [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
