package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/query"
	"github.com/noah-isme/sma-adp-client/internal/validation"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

type parentRepository interface {
	List(ctx context.Context, organizationID int) (query.Result[[]models.Parent], error)
	Refetch(ctx context.Context, organizationID int) (query.Result[[]models.Parent], error)
	Retrieve(ctx context.Context, parentID int) (query.Result[models.Parent], error)
	Create(ctx context.Context, req models.CreateParentRequest) (*models.Parent, error)
	Update(ctx context.Context, parentID int, req models.UpdateParentRequest) (*models.Parent, error)
	Pending() bool
}

// ParentService backs the parent screen.
type ParentService struct {
	repo      parentRepository
	sessions  sessionReader
	validator *validation.Validator
	logger    *zap.Logger
}

func NewParentService(repo parentRepository, sessions sessionReader, validate *validation.Validator, logger *zap.Logger) *ParentService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParentService{repo: repo, sessions: sessions, validator: validate, logger: logger}
}

func (s *ParentService) List(ctx context.Context, filter models.RosterFilter) (*Page[models.Parent], error) {
	res, err := s.repo.List(ctx, s.sessions.Current().OrganizationID())
	if err != nil {
		return nil, err
	}
	return buildPage(res, filter, matchParent), nil
}

func (s *ParentService) Refetch(ctx context.Context, filter models.RosterFilter) (*Page[models.Parent], error) {
	res, err := s.repo.Refetch(ctx, s.sessions.Current().OrganizationID())
	if err != nil {
		return nil, err
	}
	return buildPage(res, filter, matchParent), nil
}

func (s *ParentService) Get(ctx context.Context, parentID int) (*models.Parent, error) {
	res, err := s.repo.Retrieve(ctx, parentID)
	return single(res, err, "parent")
}

func (s *ParentService) Create(ctx context.Context, draft validation.ParentDraft) (*models.Parent, error) {
	if err := s.validator.Validate(draft).Err(); err != nil {
		return nil, err
	}
	if err := requireSession(s.sessions); err != nil {
		return nil, err
	}
	parent, err := s.repo.Create(ctx, draft.CreateRequest(s.sessions.Current().OrganizationID()))
	if err != nil {
		return nil, err
	}
	s.logger.Info("parent registered", zap.Int("parent_id", parent.ParentID), zap.String("relation", parent.Relation))
	return parent, nil
}

func (s *ParentService) Update(ctx context.Context, parentID int, draft validation.ParentDraft) (*models.Parent, error) {
	if parentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "parent id is required")
	}
	if err := s.validator.Validate(draft).Err(); err != nil {
		return nil, err
	}
	if err := requireSession(s.sessions); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, parentID, draft.UpdateRequest())
}

func (s *ParentService) Pending() bool {
	return s.repo.Pending()
}

func matchParent(p models.Parent, search string) bool {
	return contains(search, p.Name, p.Email, p.Relation, p.MobileNo)
}
