package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/query"
	"github.com/noah-isme/sma-adp-client/internal/validation"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, organizationID int) (query.Result[[]models.Student], error)
	Refetch(ctx context.Context, organizationID int) (query.Result[[]models.Student], error)
	Retrieve(ctx context.Context, admissionNo string) (query.Result[models.Student], error)
	Create(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error)
	Update(ctx context.Context, admissionNo string, req models.UpdateStudentRequest) (*models.Student, error)
	Remove(ctx context.Context, admissionNo string) error
	Pending() bool
}

// StudentService backs the student screen.
type StudentService struct {
	repo      studentRepository
	sessions  sessionReader
	validator *validation.Validator
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, sessions sessionReader, validate *validation.Validator, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, sessions: sessions, validator: validate, logger: logger}
}

// List returns one page of students. Search matches name and admission number.
func (s *StudentService) List(ctx context.Context, filter models.RosterFilter) (*Page[models.Student], error) {
	res, err := s.repo.List(ctx, s.sessions.Current().OrganizationID())
	if err != nil {
		return nil, err
	}
	return buildPage(res, filter, matchStudent), nil
}

func (s *StudentService) Refetch(ctx context.Context, filter models.RosterFilter) (*Page[models.Student], error) {
	res, err := s.repo.Refetch(ctx, s.sessions.Current().OrganizationID())
	if err != nil {
		return nil, err
	}
	return buildPage(res, filter, matchStudent), nil
}

func (s *StudentService) Get(ctx context.Context, admissionNo string) (*models.Student, error) {
	res, err := s.repo.Retrieve(ctx, admissionNo)
	return single(res, err, "student")
}

func (s *StudentService) Create(ctx context.Context, draft validation.StudentDraft) (*models.Student, error) {
	if err := s.validator.Validate(draft).Err(); err != nil {
		return nil, err
	}
	if err := requireSession(s.sessions); err != nil {
		return nil, err
	}
	student, err := s.repo.Create(ctx, draft.CreateRequest(s.sessions.Current().OrganizationID()))
	if err != nil {
		return nil, err
	}
	s.logger.Info("student registered", zap.String("admission_no", student.Key()))
	return student, nil
}

func (s *StudentService) Update(ctx context.Context, admissionNo string, draft validation.StudentDraft) (*models.Student, error) {
	if strings.TrimSpace(admissionNo) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "admission number is required")
	}
	if err := s.validator.Validate(draft).Err(); err != nil {
		return nil, err
	}
	if err := requireSession(s.sessions); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, admissionNo, draft.UpdateRequest())
}

// Remove deletes a student. A student that is already gone reports
// NotFound; callers treat that as done.
func (s *StudentService) Remove(ctx context.Context, admissionNo string) error {
	if strings.TrimSpace(admissionNo) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "admission number is required")
	}
	if err := requireSession(s.sessions); err != nil {
		return err
	}
	err := s.repo.Remove(ctx, admissionNo)
	if errors.Is(err, appErrors.ErrNotFound) {
		s.logger.Debug("student already removed", zap.String("admission_no", admissionNo))
	}
	return err
}

func (s *StudentService) Pending() bool {
	return s.repo.Pending()
}

func matchStudent(st models.Student, search string) bool {
	return contains(search, st.Name, st.AdmissionNo.String())
}
