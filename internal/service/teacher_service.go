package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/query"
	"github.com/noah-isme/sma-adp-client/internal/validation"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, organizationID int) (query.Result[[]models.Teacher], error)
	Refetch(ctx context.Context, organizationID int) (query.Result[[]models.Teacher], error)
	Retrieve(ctx context.Context, teacherID int) (query.Result[models.Teacher], error)
	Create(ctx context.Context, req models.CreateTeacherRequest) (*models.Teacher, error)
	Update(ctx context.Context, teacherID int, req models.UpdateTeacherRequest) (*models.Teacher, error)
	Pending() bool
}

// TeacherService backs the teacher screen.
type TeacherService struct {
	repo      teacherRepository
	sessions  sessionReader
	validator *validation.Validator
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, sessions sessionReader, validate *validation.Validator, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, sessions: sessions, validator: validate, logger: logger}
}

// List returns one page of the signed-in organization's teachers.
func (s *TeacherService) List(ctx context.Context, filter models.RosterFilter) (*Page[models.Teacher], error) {
	res, err := s.repo.List(ctx, s.organization())
	if err != nil {
		return nil, err
	}
	return buildPage(res, filter, matchTeacher), nil
}

// Refetch reloads the roster from the API.
func (s *TeacherService) Refetch(ctx context.Context, filter models.RosterFilter) (*Page[models.Teacher], error) {
	res, err := s.repo.Refetch(ctx, s.organization())
	if err != nil {
		return nil, err
	}
	return buildPage(res, filter, matchTeacher), nil
}

// Get returns a teacher by teacher_id.
func (s *TeacherService) Get(ctx context.Context, teacherID int) (*models.Teacher, error) {
	res, err := s.repo.Retrieve(ctx, teacherID)
	return single(res, err, "teacher")
}

// Create validates the draft and registers the teacher in the signed-in
// organization.
func (s *TeacherService) Create(ctx context.Context, draft validation.TeacherDraft) (*models.Teacher, error) {
	if err := s.validator.Validate(draft).Err(); err != nil {
		return nil, err
	}
	if err := requireSession(s.sessions); err != nil {
		return nil, err
	}
	teacher, err := s.repo.Create(ctx, draft.CreateRequest(s.organization()))
	if err != nil {
		return nil, err
	}
	s.logger.Info("teacher registered", zap.Int("teacher_id", teacher.TeacherID))
	return teacher, nil
}

// Update validates the draft and saves it over teacherID.
func (s *TeacherService) Update(ctx context.Context, teacherID int, draft validation.TeacherDraft) (*models.Teacher, error) {
	if teacherID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	if err := s.validator.Validate(draft).Err(); err != nil {
		return nil, err
	}
	if err := requireSession(s.sessions); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, teacherID, draft.UpdateRequest())
}

// Pending reports whether a save is in flight.
func (s *TeacherService) Pending() bool {
	return s.repo.Pending()
}

func (s *TeacherService) organization() int {
	return s.sessions.Current().OrganizationID()
}

func matchTeacher(t models.Teacher, search string) bool {
	return contains(search, t.Name, t.Email, t.MobileNo, t.City)
}

func requireSession(sessions sessionReader) error {
	if !sessions.Current().Authenticated() {
		return appErrors.Clone(appErrors.ErrSessionExpired, "please re-authenticate")
	}
	return nil
}
