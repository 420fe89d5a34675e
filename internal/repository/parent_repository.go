package repository

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/query"
)

// ParentRepository reads and writes parents through the query cache.
type ParentRepository struct {
	res *resource[models.Parent, models.CreateParentRequest, models.UpdateParentRequest]
}

// NewParentRepository constructs a ParentRepository.
func NewParentRepository(api API, cache *query.Client, logger *zap.Logger) *ParentRepository {
	return &ParentRepository{res: newResource[models.Parent, models.CreateParentRequest, models.UpdateParentRequest](
		api, cache, logger, specFor("parent"), models.Parent.Key,
	)}
}

func (r *ParentRepository) List(ctx context.Context, organizationID int) (query.Result[[]models.Parent], error) {
	return r.res.list(ctx, organizationID)
}

// Refetch reloads the organization's roster regardless of staleness.
func (r *ParentRepository) Refetch(ctx context.Context, organizationID int) (query.Result[[]models.Parent], error) {
	return r.res.refetch(ctx, organizationID)
}

func (r *ParentRepository) Retrieve(ctx context.Context, parentID int) (query.Result[models.Parent], error) {
	return r.res.retrieve(ctx, strconv.Itoa(parentID))
}

func (r *ParentRepository) Create(ctx context.Context, req models.CreateParentRequest) (*models.Parent, error) {
	parent, err := r.res.create.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}
	return &parent, nil
}

func (r *ParentRepository) Update(ctx context.Context, parentID int, req models.UpdateParentRequest) (*models.Parent, error) {
	parent, err := r.res.update.Mutate(ctx, patch[models.UpdateParentRequest]{ID: strconv.Itoa(parentID), Patch: req})
	if err != nil {
		return nil, err
	}
	return &parent, nil
}

// Pending reports whether a create or update is in flight.
func (r *ParentRepository) Pending() bool {
	return r.res.create.IsPending() || r.res.update.IsPending()
}
