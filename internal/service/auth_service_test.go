package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/validation"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

type fakeSessionManager struct {
	session   models.Session
	logins    int
	logoutErr error
}

func (f *fakeSessionManager) Current() models.Session { return f.session }

func (f *fakeSessionManager) Login(ctx context.Context, email, password string) (models.Session, error) {
	f.logins++
	if password != "secret" {
		return models.Session{}, appErrors.Clone(appErrors.ErrAuthentication, "")
	}
	f.session = models.Session{User: &models.User{Email: email, Organization: 3}, AccessToken: "acc"}
	return f.session, nil
}

func (f *fakeSessionManager) Logout(ctx context.Context) error {
	f.session = models.Session{}
	return f.logoutErr
}

func (f *fakeSessionManager) Refresh(ctx context.Context) (models.Session, error) {
	return f.session, nil
}

type fakeRegistrar struct {
	requests []models.RegisterRequest
}

func (f *fakeRegistrar) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	f.requests = append(f.requests, req)
	return &models.RegisterResponse{Message: "User registered successfully"}, nil
}

func TestAuthServiceLogin(t *testing.T) {
	sessions := &fakeSessionManager{}
	svc := NewAuthService(sessions, &fakeRegistrar{}, nil, nil)

	_, err := svc.Login(context.Background(), validation.LoginDraft{Email: "admin"})
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, map[string]string{"email": "Invalid email format", "password": "This field is required"}, appErrors.FieldsOf(err))
	assert.Zero(t, sessions.logins)

	_, err = svc.Login(context.Background(), validation.LoginDraft{Email: "admin@sma.sch.id", Password: "nope"})
	assert.True(t, errors.Is(err, appErrors.ErrAuthentication))

	sess, err := svc.Login(context.Background(), validation.LoginDraft{Email: "admin@sma.sch.id", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, 3, sess.OrganizationID())
	assert.True(t, svc.Session().Authenticated())
}

func TestAuthServiceLogout(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sessions := &fakeSessionManager{session: models.Session{User: &models.User{Email: "admin@sma.sch.id"}, AccessToken: "acc"}}
	svc := NewAuthService(sessions, &fakeRegistrar{}, nil, zap.New(core))

	require.NoError(t, svc.Logout(context.Background()))
	assert.False(t, svc.Session().Authenticated())
	require.Equal(t, 1, logs.FilterMessage("signed out").Len())
	assert.Equal(t, "admin@sma.sch.id", logs.FilterMessage("signed out").All()[0].ContextMap()["email"])

	sessions.logoutErr = errors.New("disk full")
	assert.Error(t, svc.Logout(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("logout left stored credentials behind").Len())
}

func TestAuthServiceRegister(t *testing.T) {
	accounts := &fakeRegistrar{}
	svc := NewAuthService(&fakeSessionManager{}, accounts, nil, nil)

	_, err := svc.Register(context.Background(), validation.RegistrationDraft{Email: "new@sma.sch.id", Password: "pw", Role: "x"})
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	fields := appErrors.FieldsOf(err)
	assert.Equal(t, "Must be a number", fields["role"])
	assert.Equal(t, "This field is required", fields["organization"])
	assert.Empty(t, accounts.requests)

	resp, err := svc.Register(context.Background(), validation.RegistrationDraft{Email: "new@sma.sch.id", Password: "pw", Role: "2", Organization: "3"})
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully", resp.Message)
	assert.Equal(t, []models.RegisterRequest{{Email: "new@sma.sch.id", Password: "pw", Role: 2, Organization: 3}}, accounts.requests)
}
