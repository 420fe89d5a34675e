package repository

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/query"
)

// TeacherRepository reads and writes teachers through the query cache.
type TeacherRepository struct {
	res *resource[models.Teacher, models.CreateTeacherRequest, models.UpdateTeacherRequest]
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(api API, cache *query.Client, logger *zap.Logger) *TeacherRepository {
	return &TeacherRepository{res: newResource[models.Teacher, models.CreateTeacherRequest, models.UpdateTeacherRequest](
		api, cache, logger, specFor("teacher"), models.Teacher.Key,
	)}
}

// List returns the organization's teachers. Without an organization the
// query stays idle.
func (r *TeacherRepository) List(ctx context.Context, organizationID int) (query.Result[[]models.Teacher], error) {
	return r.res.list(ctx, organizationID)
}

// Refetch reloads the organization's roster regardless of staleness.
func (r *TeacherRepository) Refetch(ctx context.Context, organizationID int) (query.Result[[]models.Teacher], error) {
	return r.res.refetch(ctx, organizationID)
}

// Retrieve returns one teacher by teacher_id.
func (r *TeacherRepository) Retrieve(ctx context.Context, teacherID int) (query.Result[models.Teacher], error) {
	return r.res.retrieve(ctx, strconv.Itoa(teacherID))
}

// Create registers a teacher.
func (r *TeacherRepository) Create(ctx context.Context, req models.CreateTeacherRequest) (*models.Teacher, error) {
	teacher, err := r.res.create.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Update applies a partial update.
func (r *TeacherRepository) Update(ctx context.Context, teacherID int, req models.UpdateTeacherRequest) (*models.Teacher, error) {
	teacher, err := r.res.update.Mutate(ctx, patch[models.UpdateTeacherRequest]{ID: strconv.Itoa(teacherID), Patch: req})
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Pending reports whether a create or update is in flight.
func (r *TeacherRepository) Pending() bool {
	return r.res.create.IsPending() || r.res.update.IsPending()
}
