package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/query"
	"github.com/noah-isme/sma-adp-client/pkg/apiclient"
)

// StudentRepository reads and writes students through the query cache.
// Students are the only kind that can be deleted.
type StudentRepository struct {
	res    *resource[models.Student, models.CreateStudentRequest, models.UpdateStudentRequest]
	remove *query.Mutation[string, struct{}]
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(api API, cache *query.Client, logger *zap.Logger) *StudentRepository {
	res := newResource[models.Student, models.CreateStudentRequest, models.UpdateStudentRequest](
		api, cache, logger, specFor("student"), models.Student.Key,
	)
	remove := query.NewMutation(cache, query.MutationConfig[string, struct{}]{
		Name: "students.delete",
		Fn: func(ctx context.Context, admissionNo string) (struct{}, error) {
			return struct{}{}, api.Do(ctx, apiclient.Request{
				Method: http.MethodDelete,
				Path:   fmt.Sprintf("%s/delete/%s/", res.spec.base, url.PathEscape(admissionNo)),
				Route:  "students.delete",
			}, nil)
		},
		Invalidates: func(admissionNo string, _ struct{}) []query.Key {
			return res.touched(admissionNo)
		},
	})
	return &StudentRepository{res: res, remove: remove}
}

func (r *StudentRepository) List(ctx context.Context, organizationID int) (query.Result[[]models.Student], error) {
	return r.res.list(ctx, organizationID)
}

// Refetch reloads the organization's roster regardless of staleness.
func (r *StudentRepository) Refetch(ctx context.Context, organizationID int) (query.Result[[]models.Student], error) {
	return r.res.refetch(ctx, organizationID)
}

// Retrieve returns one student by admission number.
func (r *StudentRepository) Retrieve(ctx context.Context, admissionNo string) (query.Result[models.Student], error) {
	return r.res.retrieve(ctx, strings.TrimSpace(admissionNo))
}

func (r *StudentRepository) Create(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	student, err := r.res.create.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *StudentRepository) Update(ctx context.Context, admissionNo string, req models.UpdateStudentRequest) (*models.Student, error) {
	student, err := r.res.update.Mutate(ctx, patch[models.UpdateStudentRequest]{ID: strings.TrimSpace(admissionNo), Patch: req})
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// Remove deletes a student. Deleting an already deleted student reports
// NotFound and leaves the cache untouched.
func (r *StudentRepository) Remove(ctx context.Context, admissionNo string) error {
	_, err := r.remove.Mutate(ctx, strings.TrimSpace(admissionNo))
	return err
}

// Pending reports whether any write is in flight.
func (r *StudentRepository) Pending() bool {
	return r.res.create.IsPending() || r.res.update.IsPending() || r.remove.IsPending()
}
