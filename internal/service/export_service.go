package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/pkg/config"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
	"github.com/noah-isme/sma-adp-client/pkg/export"
)

// exportPageSize bounds a single export to one large page of the roster.
const exportPageSize = maxPageSize

type teacherRoster interface {
	List(ctx context.Context, filter models.RosterFilter) (*Page[models.Teacher], error)
}

type studentRoster interface {
	List(ctx context.Context, filter models.RosterFilter) (*Page[models.Student], error)
}

type parentRoster interface {
	List(ctx context.Context, filter models.RosterFilter) (*Page[models.Parent], error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult is a rendered roster ready to be written or downloaded.
type ExportResult struct {
	Filename    string
	ContentType string
	Format      models.ExportFormat
	Rows        int
	Data        []byte
}

// ExportService renders the roster tables shown on screen to CSV or PDF.
type ExportService struct {
	teachers teacherRoster
	students studentRoster
	parents  parentRoster
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers default to the
// package exporters.
func NewExportService(teachers teacherRoster, students studentRoster, parents parentRoster, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(config.ExportConfig{})
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		teachers: teachers,
		students: students,
		parents:  parents,
		csv:      csv,
		pdf:      pdf,
		logger:   logger,
		now:      time.Now,
	}
}

// Export renders the roster of kind, honouring the search in filter.
func (s *ExportService) Export(ctx context.Context, kind models.RosterKind, format models.ExportFormat, filter models.RosterFilter) (*ExportResult, error) {
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Validation("unsupported export format", map[string]string{"format": "Must be one of csv, pdf"})
	}
	filter.Page = 1
	filter.PageSize = exportPageSize

	dataset, err := s.buildDataset(ctx, kind, filter)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch format {
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("%s_%s.%s", kind, s.now().UTC().Format("20060102_150405"), format)
	s.logger.Info("roster exported", zap.String("kind", string(kind)), zap.String("format", string(format)), zap.Int("rows", len(dataset.Rows)))
	return &ExportResult{
		Filename:    filename,
		ContentType: format.ContentType(),
		Format:      format,
		Rows:        len(dataset.Rows),
		Data:        payload,
	}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, kind models.RosterKind, filter models.RosterFilter) (export.Dataset, error) {
	switch kind {
	case models.RosterTeachers:
		page, err := s.teachers.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, err
		}
		rows := make([]map[string]string, 0, len(page.Items))
		for _, t := range page.Items {
			rows = append(rows, map[string]string{
				"teacher_id":    strconv.Itoa(t.TeacherID),
				"name":          t.Name,
				"email":         t.Email,
				"qualification": t.Qualification,
				"mobile_no":     t.MobileNo,
				"whatsapp_no":   t.WhatsappNo,
				"city":          t.City,
				"state":         t.State,
				"pincode":       numberOrBlank(t.Pincode),
			})
		}
		return export.Dataset{
			Title:   "Teachers",
			Headers: []string{"teacher_id", "name", "email", "qualification", "mobile_no", "whatsapp_no", "city", "state", "pincode"},
			Rows:    rows,
		}, nil
	case models.RosterStudents:
		page, err := s.students.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, err
		}
		rows := make([]map[string]string, 0, len(page.Items))
		for _, st := range page.Items {
			rows = append(rows, map[string]string{
				"admission_no": st.AdmissionNo.String(),
				"name":         st.Name,
				"parent":       numberOrBlank(st.Parent.Int()),
				"class_room":   numberOrBlank(st.ClassRoom.Int()),
			})
		}
		return export.Dataset{
			Title:   "Students",
			Headers: []string{"admission_no", "name", "parent", "class_room"},
			Rows:    rows,
		}, nil
	case models.RosterParents:
		page, err := s.parents.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, err
		}
		rows := make([]map[string]string, 0, len(page.Items))
		for _, p := range page.Items {
			rows = append(rows, map[string]string{
				"parent_id":   strconv.Itoa(p.ParentID),
				"name":        p.Name,
				"relation":    p.Relation,
				"email":       p.Email,
				"mobile_no":   p.MobileNo,
				"whatsapp_no": p.WhatsappNo,
				"city":        p.City,
				"state":       p.State,
				"pincode":     numberOrBlank(p.Pincode),
			})
		}
		return export.Dataset{
			Title:   "Parents",
			Headers: []string{"parent_id", "name", "relation", "email", "mobile_no", "whatsapp_no", "city", "state", "pincode"},
			Rows:    rows,
		}, nil
	default:
		return export.Dataset{}, appErrors.Validation("unsupported roster", map[string]string{"kind": "Must be one of teachers, students, parents"})
	}
}

func numberOrBlank(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
