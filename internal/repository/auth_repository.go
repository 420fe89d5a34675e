package repository

import (
	"context"
	"net/http"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/pkg/apiclient"
)

// AuthRepository talks to the account endpoints. Login and registration are
// anonymous; the current-user lookup carries the token it is given.
type AuthRepository struct {
	api API
}

// NewAuthRepository constructs an AuthRepository.
func NewAuthRepository(api API) *AuthRepository {
	return &AuthRepository{api: api}
}

// Login exchanges credentials for a session.
func (r *AuthRepository) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := r.api.Do(ctx, apiclient.Request{
		Method:    http.MethodPost,
		Path:      "/api/users/login/",
		Route:     "users.login",
		Body:      req,
		Anonymous: true,
	}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentUser returns the account owning accessToken.
func (r *AuthRepository) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	var user models.User
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/users/api/users",
		Route:  "users.current",
		Token:  accessToken,
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates a console account.
func (r *AuthRepository) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	var resp models.RegisterResponse
	if err := r.api.Do(ctx, apiclient.Request{
		Method:    http.MethodPost,
		Path:      "/users/api/registerUser",
		Route:     "users.register",
		Body:      req,
		Anonymous: true,
	}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
