package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-client/internal/models"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
	"github.com/noah-isme/sma-adp-client/pkg/storage"
)

// Authenticator performs the remote half of login and session refresh.
type Authenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
}

// ErrInvalidOrganization rejects accounts that are not attached to a school.
var ErrInvalidOrganization = appErrors.New("INVALID_ORGANIZATION", http.StatusForbidden, "User has invalid organization")

// Store holds the current identity. Writers are serialised and every write
// reaches durable storage before it becomes visible to readers.
type Store struct {
	kv     storage.KV
	auth   Authenticator
	logger *zap.Logger

	writeMu   sync.Mutex
	mu        sync.RWMutex
	session   models.Session
	listeners []func(models.Session)
}

// NewStore hydrates the session from kv. Missing or corrupt entries yield an
// empty session; hydration never fails.
func NewStore(ctx context.Context, kv storage.KV, auth Authenticator, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if kv == nil {
		kv = storage.NewMemoryKV()
	}
	s := &Store{kv: kv, auth: auth, logger: logger}
	s.session = s.hydrate(ctx)
	return s
}

func (s *Store) hydrate(ctx context.Context) models.Session {
	var sess models.Session

	if raw, ok := s.read(ctx, storage.KeyUser); ok {
		var user models.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			s.logger.Warn("stored user is corrupt, ignoring", zap.Error(err))
		} else if raw != "null" {
			sess.User = &user
		}
	}
	if raw, ok := s.read(ctx, storage.KeyAccessToken); ok {
		sess.AccessToken = decodeToken(raw)
	}
	if raw, ok := s.read(ctx, storage.KeyRefreshToken); ok {
		sess.RefreshToken = decodeToken(raw)
	}

	if (sess.User == nil) != (sess.AccessToken == "") {
		s.logger.Warn("stored session is incomplete, starting signed out",
			zap.Bool("has_user", sess.User != nil), zap.Bool("has_token", sess.AccessToken != ""))
		return models.Session{}
	}
	return sess
}

func (s *Store) read(ctx context.Context, key string) (string, bool) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("stored session entry unreadable", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return raw, true
}

// decodeToken accepts both the raw form and a JSON string.
func decodeToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, `"`) {
		var token string
		if err := json.Unmarshal([]byte(raw), &token); err == nil {
			return token
		}
		return ""
	}
	if raw == "null" {
		return ""
	}
	return raw
}

// Current returns a copy of the session.
func (s *Store) Current() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess := s.session
	if sess.User != nil {
		user := *sess.User
		sess.User = &user
	}
	return sess
}

// AccessToken returns the credential at call time.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

// AccessTokenExpiry reads the exp claim of the current credential.
func (s *Store) AccessTokenExpiry() (time.Time, bool) {
	return models.TokenExpiry(s.AccessToken())
}

// OnChange registers fn to run after every session write.
func (s *Store) OnChange(fn func(models.Session)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Login authenticates against the API and installs the returned identity.
func (s *Store) Login(ctx context.Context, email, password string) (models.Session, error) {
	if s.auth == nil {
		return models.Session{}, appErrors.Clone(appErrors.ErrInternal, "login is not configured")
	}
	resp, err := s.auth.Login(ctx, models.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrFetch.Code) && appErrors.FromError(err).Status == 0 {
			return models.Session{}, err
		}
		s.logger.Info("login rejected", zap.String("email", email), zap.Error(err))
		return models.Session{}, appErrors.Wrap(err, appErrors.ErrAuthentication.Code, appErrors.ErrAuthentication.Status, appErrors.ErrAuthentication.Message)
	}
	if resp == nil || resp.Access == "" {
		return models.Session{}, appErrors.Clone(appErrors.ErrAuthentication, "login response carried no credential")
	}

	user := resp.User
	if err := s.SetAuthData(ctx, &user, resp.Access, resp.Refresh); err != nil {
		return models.Session{}, err
	}
	s.logger.Info("signed in", zap.String("email", user.Email), zap.Int("organization", user.Organization.Int()))
	return s.Current(), nil
}

// SetAuthData overwrites the session. A nil user or empty access credential
// clears the whole session so one never exists without the other.
func (s *Store) SetAuthData(ctx context.Context, user *models.User, access, refresh string) error {
	if user == nil || access == "" {
		return s.Logout(ctx)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	encoded, err := json.Marshal(user)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode session user")
	}
	// The access credential is written last so a partial write is detected as
	// an incomplete session on the next start.
	writes := []struct{ key, value string }{
		{storage.KeyUser, string(encoded)},
		{storage.KeyRefreshToken, refresh},
		{storage.KeyAccessToken, access},
	}
	for _, w := range writes {
		if err := s.kv.Set(ctx, w.key, w.value); err != nil {
			return fmt.Errorf("persist %s: %w", w.key, err)
		}
	}

	u := *user
	s.install(models.Session{User: &u, AccessToken: access, RefreshToken: refresh})
	return nil
}

// Logout clears the session from memory and storage. Memory is cleared even
// when storage fails so no further call is authorized.
func (s *Store) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.install(models.Session{})

	var errs []error
	for _, key := range []string{storage.KeyAccessToken, storage.KeyUser, storage.KeyRefreshToken} {
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Refresh re-reads the signed-in user from the API.
func (s *Store) Refresh(ctx context.Context) (models.Session, error) {
	current := s.Current()
	if !current.Authenticated() {
		return models.Session{}, appErrors.Clone(appErrors.ErrSessionExpired, "")
	}
	if s.auth == nil {
		return current, nil
	}

	user, err := s.auth.CurrentUser(ctx, current.AccessToken)
	if err != nil {
		return models.Session{}, err
	}
	if user == nil || !user.Organization.Valid() {
		return models.Session{}, appErrors.Clone(ErrInvalidOrganization, "")
	}
	if err := s.SetAuthData(ctx, user, current.AccessToken, current.RefreshToken); err != nil {
		return models.Session{}, err
	}
	return s.Current(), nil
}

func (s *Store) install(sess models.Session) {
	s.mu.Lock()
	s.session = sess
	listeners := make([]func(models.Session), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	snapshot := s.Current()
	for _, fn := range listeners {
		fn(snapshot)
	}
}
