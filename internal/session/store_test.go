package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-client/internal/models"
	"github.com/noah-isme/sma-adp-client/pkg/apiclient"
	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
	"github.com/noah-isme/sma-adp-client/pkg/storage"
)

type fakeAuth struct {
	resp    *models.LoginResponse
	err     error
	user    *models.User
	lastReq models.LoginRequest
	seenTok string
}

func (f *fakeAuth) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

func (f *fakeAuth) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	f.seenTok = token
	return f.user, f.err
}

func seed(t *testing.T, values map[string]string) storage.KV {
	t.Helper()
	kv := storage.NewMemoryKV()
	for k, v := range values {
		require.NoError(t, kv.Set(context.Background(), k, v))
	}
	return kv
}

func TestNewStoreHydrates(t *testing.T) {
	kv := seed(t, map[string]string{
		storage.KeyUser:         `{"email":"admin@sma.sch.id","role":{"role_id":2,"role_name":"admin"},"organization":{"org_id":7,"org_name":"SMA 1"}}`,
		storage.KeyAccessToken:  "access-1",
		storage.KeyRefreshToken: `"refresh-1"`,
	})

	store := NewStore(context.Background(), kv, nil, nil)
	sess := store.Current()
	require.True(t, sess.Authenticated())
	assert.Equal(t, 7, sess.OrganizationID())
	assert.Equal(t, 2, sess.User.Role.Int())
	assert.Equal(t, "access-1", store.AccessToken())
	assert.Equal(t, "refresh-1", sess.RefreshToken)
}

func TestNewStoreDegradesToEmpty(t *testing.T) {
	cases := map[string]map[string]string{
		"nothing stored":     {},
		"corrupt user":       {storage.KeyUser: `{"email":`, storage.KeyAccessToken: "tok"},
		"token without user": {storage.KeyAccessToken: "tok"},
		"user without token": {storage.KeyUser: `{"email":"a@b.com","role":1,"organization":1}`},
		"null user":          {storage.KeyUser: "null", storage.KeyAccessToken: "tok"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			store := NewStore(context.Background(), seed(t, values), nil, nil)
			assert.False(t, store.Current().Authenticated())
			assert.Empty(t, store.AccessToken())
		})
	}
}

func TestLoginInstallsAndPersists(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	auth := &fakeAuth{resp: &models.LoginResponse{
		User:    models.User{Email: "admin@sma.sch.id", Role: 1, Organization: 3},
		Access:  "acc",
		Refresh: "ref",
	}}
	store := NewStore(ctx, kv, auth, nil)

	sess, err := store.Login(ctx, " admin@sma.sch.id ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "admin@sma.sch.id", auth.lastReq.Email)
	assert.Equal(t, 3, sess.OrganizationID())

	reopened := NewStore(ctx, kv, nil, nil)
	assert.Equal(t, "acc", reopened.AccessToken())
	assert.Equal(t, "ref", reopened.Current().RefreshToken)
	assert.Equal(t, "admin@sma.sch.id", reopened.Current().User.Email)
}

func TestLoginRejected(t *testing.T) {
	store := NewStore(context.Background(), nil, &fakeAuth{err: appErrors.Fetch(nil, http.StatusBadRequest, "bad request")}, nil)

	_, err := store.Login(context.Background(), "a@b.com", "wrong")
	assert.True(t, errors.Is(err, appErrors.ErrAuthentication))
	assert.False(t, store.Current().Authenticated())
}

func TestLoginTransportFailureIsNotAuthentication(t *testing.T) {
	store := NewStore(context.Background(), nil, &fakeAuth{err: appErrors.Fetch(errors.New("dial"), 0, "")}, nil)

	_, err := store.Login(context.Background(), "a@b.com", "pw")
	assert.True(t, errors.Is(err, appErrors.ErrFetch))
}

func TestSetAuthDataWithoutTokenClears(t *testing.T) {
	ctx := context.Background()
	store := NewStore(ctx, nil, nil, nil)
	require.NoError(t, store.SetAuthData(ctx, &models.User{Email: "a@b.com", Organization: 1}, "tok", "ref"))
	require.True(t, store.Current().Authenticated())

	require.NoError(t, store.SetAuthData(ctx, &models.User{Email: "a@b.com"}, "", "ref"))
	sess := store.Current()
	assert.Nil(t, sess.User)
	assert.Empty(t, sess.RefreshToken)
}

func TestLogoutClearsStorageAndNotifies(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	store := NewStore(ctx, kv, nil, nil)
	require.NoError(t, store.SetAuthData(ctx, &models.User{Email: "a@b.com", Organization: 1}, "tok", "ref"))

	var seen []bool
	store.OnChange(func(s models.Session) { seen = append(seen, s.Authenticated()) })
	require.NoError(t, store.Logout(ctx))

	assert.Equal(t, []bool{false}, seen)
	for _, key := range []string{storage.KeyUser, storage.KeyAccessToken, storage.KeyRefreshToken} {
		_, err := kv.Get(ctx, key)
		assert.ErrorIs(t, err, appErrors.ErrCacheMiss, key)
	}
}

func TestCurrentReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(ctx, nil, nil, nil)
	require.NoError(t, store.SetAuthData(ctx, &models.User{Email: "a@b.com", Organization: 1}, "tok", ""))

	sess := store.Current()
	sess.User.Email = "changed@b.com"
	assert.Equal(t, "a@b.com", store.Current().User.Email)
}

func TestRefreshRejectsMissingOrganization(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuth{user: &models.User{Email: "a@b.com", Organization: 0}}
	store := NewStore(ctx, nil, auth, nil)
	require.NoError(t, store.SetAuthData(ctx, &models.User{Email: "a@b.com", Organization: 1}, "tok", ""))

	_, err := store.Refresh(ctx)
	assert.True(t, errors.Is(err, ErrInvalidOrganization))
	assert.Equal(t, "tok", auth.seenTok)

	auth.user = &models.User{Email: "a@b.com", Organization: 4}
	sess, err := store.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, sess.OrganizationID())
}

func TestRefreshWithoutSession(t *testing.T) {
	store := NewStore(context.Background(), nil, &fakeAuth{}, nil)
	_, err := store.Refresh(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrSessionExpired))
}

func TestLogoutStopsAuthorizingCalls(t *testing.T) {
	var (
		mu      sync.Mutex
		headers []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx := context.Background()
	store := NewStore(ctx, nil, nil, nil)
	base, err := apiclient.New(apiclient.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	api := base.WithTokens(store)

	require.NoError(t, store.SetAuthData(ctx, &models.User{Email: "a@b.com", Organization: 1}, "live-token", "ref"))
	require.NoError(t, api.Get(ctx, "/teacher/teachers/list/1/", "teachers.list", nil))

	require.NoError(t, store.Logout(ctx))
	require.NoError(t, api.Get(ctx, "/teacher/teachers/list/1/", "teachers.list", nil))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer live-token", ""}, headers)
}
