package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/query"
	"github.com/noah-isme/sma-adp-client/internal/validation"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

type mockParentRepo struct {
	parents []models.Parent
	created []models.CreateParentRequest
	updated []models.UpdateParentRequest
}

func (m *mockParentRepo) List(ctx context.Context, organizationID int) (query.Result[[]models.Parent], error) {
	return query.Result[[]models.Parent]{Data: m.parents, Status: query.StatusSuccess}, nil
}

func (m *mockParentRepo) Refetch(ctx context.Context, organizationID int) (query.Result[[]models.Parent], error) {
	return m.List(ctx, organizationID)
}

func (m *mockParentRepo) Retrieve(ctx context.Context, parentID int) (query.Result[models.Parent], error) {
	for _, p := range m.parents {
		if p.ParentID == parentID {
			return query.Result[models.Parent]{Data: p, Status: query.StatusSuccess}, nil
		}
	}
	return query.Result[models.Parent]{Status: query.StatusError}, appErrors.Clone(appErrors.ErrNotFound, "Not found.")
}

func (m *mockParentRepo) Create(ctx context.Context, req models.CreateParentRequest) (*models.Parent, error) {
	m.created = append(m.created, req)
	return &models.Parent{ParentID: 1, Name: req.Name, Relation: req.Relation}, nil
}

func (m *mockParentRepo) Update(ctx context.Context, parentID int, req models.UpdateParentRequest) (*models.Parent, error) {
	m.updated = append(m.updated, req)
	return &models.Parent{ParentID: parentID, Name: *req.Name, Relation: *req.Relation}, nil
}

func (m *mockParentRepo) Pending() bool { return false }

func parentDraft() validation.ParentDraft {
	return validation.ParentDraft{
		Name:       "Ibu Rina",
		Email:      "rina@mail.id",
		Relation:   "Mother",
		Address1:   "Jl. Merdeka 1",
		City:       "Bandung",
		State:      "Jawa Barat",
		Pincode:    "401151",
		MobileNo:   "0812345678",
		WhatsappNo: "0812345678",
	}
}

func TestParentServiceCreate(t *testing.T) {
	repo := &mockParentRepo{}
	svc := NewParentService(repo, signedIn(3), nil, nil)

	draft := parentDraft()
	draft.Relation = "Neighbour"
	draft.MobileNo = ""
	_, err := svc.Create(context.Background(), draft)
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	fields := appErrors.FieldsOf(err)
	assert.Equal(t, "This field is required", fields["mobile_no"])
	assert.Contains(t, fields["relation"], "Guardian")
	assert.Empty(t, repo.created)

	parent, err := svc.Create(context.Background(), parentDraft())
	require.NoError(t, err)
	assert.Equal(t, "Mother", parent.Relation)
	assert.Equal(t, 3, repo.created[0].Organization)
}

func TestParentServiceUpdateAndGet(t *testing.T) {
	repo := &mockParentRepo{parents: []models.Parent{{ParentID: 8, Name: "Pak Joko", Relation: "Father"}}}
	svc := NewParentService(repo, signedIn(3), nil, nil)

	draft := parentDraft()
	draft.Relation = "Guardian"
	parent, err := svc.Update(context.Background(), 8, draft)
	require.NoError(t, err)
	assert.Equal(t, "Guardian", parent.Relation)
	require.Len(t, repo.updated, 1)

	got, err := svc.Get(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "Pak Joko", got.Name)

	page, err := svc.List(context.Background(), models.RosterFilter{Search: "father"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}
