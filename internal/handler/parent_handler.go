package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/service"
	"github.com/noah-isme/sma-adp-client/internal/validation"
	"github.com/noah-isme/sma-adp-client/pkg/response"
)

type parentService interface {
	List(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Parent], error)
	Refetch(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Parent], error)
	Get(ctx context.Context, parentID int) (*models.Parent, error)
	Create(ctx context.Context, draft validation.ParentDraft) (*models.Parent, error)
	Update(ctx context.Context, parentID int, draft validation.ParentDraft) (*models.Parent, error)
}

// ParentHandler wires the parent roster to HTTP routes.
type ParentHandler struct {
	parents  parentService
	exporter rosterExporter
}

// NewParentHandler constructs a new ParentHandler.
func NewParentHandler(parents parentService, exporter rosterExporter) *ParentHandler {
	return &ParentHandler{parents: parents, exporter: exporter}
}

// List godoc
// @Summary List parents of the signed-in organization
// @Tags Parents
// @Produce json
// @Param search query string false "Search by name/email/relation"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param refresh query bool false "Bypass the cache"
// @Success 200 {object} response.Envelope
// @Router /parents [get]
func (h *ParentHandler) List(c *gin.Context) {
	filter := rosterFilter(c)
	list := h.parents.List
	if wantsRefresh(c) {
		list = h.parents.Refetch
	}
	page, err := list(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := page.Pagination
	response.JSON(c, http.StatusOK, page.Items, &pagination, pageMeta(page.Status, page.Stale, page.FromCache, page.FetchedAt))
}

// Get godoc
// @Summary Get parent detail
// @Tags Parents
// @Produce json
// @Param id path int true "Parent ID"
// @Success 200 {object} response.Envelope
// @Router /parents/{id} [get]
func (h *ParentHandler) Get(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	parent, err := h.parents.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parent, nil)
}

// Create godoc
// @Summary Register parent
// @Tags Parents
// @Accept json
// @Produce json
// @Param payload body validation.ParentDraft true "Parent payload"
// @Success 201 {object} response.Envelope
// @Router /parents [post]
func (h *ParentHandler) Create(c *gin.Context) {
	var draft validation.ParentDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, invalidPayload(err, "parent"))
		return
	}
	parent, err := h.parents.Create(c.Request.Context(), draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parent)
}

// Update godoc
// @Summary Update parent
// @Tags Parents
// @Accept json
// @Produce json
// @Param id path int true "Parent ID"
// @Param payload body validation.ParentDraft true "Parent payload"
// @Success 200 {object} response.Envelope
// @Router /parents/{id} [put]
func (h *ParentHandler) Update(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var draft validation.ParentDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, invalidPayload(err, "parent"))
		return
	}
	parent, err := h.parents.Update(c.Request.Context(), id, draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parent, nil)
}

// Export godoc
// @Summary Export the parent roster
// @Tags Parents
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /parents/export [get]
func (h *ParentHandler) Export(c *gin.Context) {
	exportRoster(c, h.exporter, models.RosterParents)
}
