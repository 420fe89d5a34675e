package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/service"
	"github.com/noah-isme/sma-adp-client/internal/validation"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
	"github.com/noah-isme/sma-adp-client/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Student], error)
	Refetch(ctx context.Context, filter models.RosterFilter) (*service.Page[models.Student], error)
	Get(ctx context.Context, admissionNo string) (*models.Student, error)
	Create(ctx context.Context, draft validation.StudentDraft) (*models.Student, error)
	Update(ctx context.Context, admissionNo string, draft validation.StudentDraft) (*models.Student, error)
	Remove(ctx context.Context, admissionNo string) error
}

// StudentHandler wires the student roster to HTTP routes. Students are
// addressed by admission number.
type StudentHandler struct {
	students studentService
	exporter rosterExporter
}

// NewStudentHandler constructs a new StudentHandler.
func NewStudentHandler(students studentService, exporter rosterExporter) *StudentHandler {
	return &StudentHandler{students: students, exporter: exporter}
}

// List godoc
// @Summary List students of the signed-in organization
// @Tags Students
// @Produce json
// @Param search query string false "Search by name/admission number"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param refresh query bool false "Bypass the cache"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := rosterFilter(c)
	list := h.students.List
	if wantsRefresh(c) {
		list = h.students.Refetch
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
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Admission number"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	admissionNo, err := admissionParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Get(c.Request.Context(), admissionNo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Admit student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body validation.StudentDraft true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var draft validation.StudentDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, invalidPayload(err, "student"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Admission number"
// @Param payload body validation.StudentDraft true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	admissionNo, err := admissionParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var draft validation.StudentDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, invalidPayload(err, "student"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), admissionNo, draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Remove student
// @Tags Students
// @Param id path string true "Admission number"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	admissionNo, err := admissionParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.students.Remove(c.Request.Context(), admissionNo); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export the student roster
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param search query string false "Search filter"
// @Success 200 {file} file
// @Router /students/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	exportRoster(c, h.exporter, models.RosterStudents)
}

func admissionParam(c *gin.Context) (string, error) {
	admissionNo := strings.TrimSpace(c.Param("id"))
	if admissionNo == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid admission number")
	}
	return admissionNo, nil
}
