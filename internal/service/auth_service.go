package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/internal/validation"
)

type sessionManager interface {
	Current() models.Session
	Login(ctx context.Context, email, password string) (models.Session, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (models.Session, error)
}

type accountRegistrar interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error)
}

// AuthService provides the sign-in, sign-out and sign-up flows.
type AuthService struct {
	sessions  sessionManager
	accounts  accountRegistrar
	validator *validation.Validator
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(sessions sessionManager, accounts accountRegistrar, validate *validation.Validator, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &AuthService{sessions: sessions, accounts: accounts, validator: validate, logger: logger}
}

// Login validates the form and signs in. Invalid forms never reach the API.
func (s *AuthService) Login(ctx context.Context, draft validation.LoginDraft) (models.Session, error) {
	if err := s.validator.Validate(draft).Err(); err != nil {
		return models.Session{}, err
	}
	return s.sessions.Login(ctx, draft.Email, draft.Password)
}

// Logout clears the session. The cache is cleared by the session listener
// installed at startup.
func (s *AuthService) Logout(ctx context.Context) error {
	email := ""
	if u := s.sessions.Current().User; u != nil {
		email = u.Email
	}
	if err := s.sessions.Logout(ctx); err != nil {
		s.logger.Warn("logout left stored credentials behind", zap.Error(err))
		return err
	}
	s.logger.Info("signed out", zap.String("email", email))
	return nil
}

// Session returns the current identity.
func (s *AuthService) Session() models.Session {
	return s.sessions.Current()
}

// Refresh re-reads the signed-in user from the API.
func (s *AuthService) Refresh(ctx context.Context) (models.Session, error) {
	return s.sessions.Refresh(ctx)
}

// Register creates a console account.
func (s *AuthService) Register(ctx context.Context, draft validation.RegistrationDraft) (*models.RegisterResponse, error) {
	if err := s.validator.Validate(draft).Err(); err != nil {
		return nil, err
	}
	resp, err := s.accounts.Register(ctx, draft.Request())
	if err != nil {
		return nil, err
	}
	s.logger.Info("account registered", zap.String("email", draft.Email))
	return resp, nil
}
