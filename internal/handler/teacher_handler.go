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

type teacherService interface {
	List(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Teacher], error)
	Refetch(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Teacher], error)
	Get(ctx context.Context, teacherID int) (*models.Teacher, error)
	Create(ctx context.Context, draft validation.TeacherDraft) (*models.Teacher, error)
	Update(ctx context.Context, teacherID int, draft validation.TeacherDraft) (*models.Teacher, error)
}

type rosterExporter interface {
	Export(ctx context.Context, kind models.RosterKind, format models.ExportFormat, filter models.RosterFilter) (*service.ExportResult, error)
}

// TeacherHandler wires the teacher roster to HTTP routes.
type TeacherHandler struct {
	teachers teacherService
	exporter rosterExporter
}

// NewTeacherHandler constructs a new TeacherHandler.
func NewTeacherHandler(teachers teacherService, exporter rosterExporter) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, exporter: exporter}
}

// List godoc
// @Summary List teachers of the signed-in organization
// @Tags Teachers
// @Produce json
// @Param search query string false "Search by name/email/city"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param refresh query bool false "Bypass the cache"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	filter := rosterFilter(c)
	list := h.teachers.List
	if wantsRefresh(c) {
		list = h.teachers.Refetch
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
// @Summary Get teacher detail
// @Tags Teachers
// @Produce json
// @Param id path int true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	teacher, err := h.teachers.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Create godoc
// @Summary Register teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body validation.TeacherDraft true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var draft validation.TeacherDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, invalidPayload(err, "teacher"))
		return
	}
	teacher, err := h.teachers.Create(c.Request.Context(), draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Update godoc
// @Summary Update teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path int true "Teacher ID"
// @Param payload body validation.TeacherDraft true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [put]
func (h *TeacherHandler) Update(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var draft validation.TeacherDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, invalidPayload(err, "teacher"))
		return
	}
	teacher, err := h.teachers.Update(c.Request.Context(), id, draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Export godoc
// @Summary Export the teacher roster
// @Tags Teachers
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param search query string false "Search filter"
// @Success 200 {file} file
// @Router /teachers/export [get]
func (h *TeacherHandler) Export(c *gin.Context) {
	exportRoster(c, h.exporter, models.RosterTeachers)
}

func exportRoster(c *gin.Context, exporter rosterExporter, kind models.RosterKind) {
	res, err := exporter.Export(c.Request.Context(), kind, exportFormat(c), rosterFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, res.Filename, res.ContentType, res.Data)
}
