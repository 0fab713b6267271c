package services

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/client/storage"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockAPI) Register(ctx context.Context, req api.RegisterRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	args := m.Called(ctx, email, code)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) Login(ctx context.Context, login, password string) (api.Tokens, error) {
	args := m.Called(ctx, login, password)
	return args.Get(0).(api.Tokens), args.Error(1)
}

func (m *MockAPI) Refresh(ctx context.Context, refreshToken string) (api.Tokens, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(api.Tokens), args.Error(1)
}

func (m *MockAPI) Logout(ctx context.Context, refreshToken string) (bool, error) {
	args := m.Called(ctx, refreshToken)
	return args.Bool(0), args.Error(1)
}

func (m *MockAPI) ListUsers(ctx context.Context, accessToken string) ([]api.User, error) {
	args := m.Called(ctx, accessToken)
	users, _ := args.Get(0).([]api.User)
	return users, args.Error(1)
}

func newService(t *testing.T) (*SessionService, *MockAPI, metadata.Repository) {
	t.Helper()
	db, err := storage.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := &MockAPI{}
	t.Cleanup(func() { m.AssertExpectations(t) })
	return NewSessionService(m, db), m, metadata.NewSQLiteRepository(db)
}

func stored(t *testing.T, r metadata.Repository, key string) string {
	t.Helper()
	v, err := r.Get(context.Background(), key)
	if errors.Is(err, common.ErrorNotFound) {
		return ""
	}
	require.NoError(t, err)
	return v
}

func TestSession_LoginStoresTokens(t *testing.T) {
	s, m, r := newService(t)
	ctx := context.Background()

	m.On("Login", mock.Anything, "alice", "password1").
		Return(api.Tokens{AccessToken: "a1", RefreshToken: "r1"}, nil)

	require.NoError(t, s.Login(ctx, "alice", "password1"))

	assert.Equal(t, "a1", stored(t, r, metadata.KeyAccessToken))
	assert.Equal(t, "r1", stored(t, r, metadata.KeyRefreshToken))

	login, err := s.CurrentLogin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", login)
}

func TestSession_LoginFailureKeepsPreviousSession(t *testing.T) {
	s, m, r := newService(t)
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, metadata.KeyLogin, "bob"))

	m.On("Login", mock.Anything, "alice", "wrong").
		Return(api.Tokens{}, &api.Error{Status: http.StatusUnauthorized, Message: "invalid password"})

	err := s.Login(ctx, "alice", "wrong")
	assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))
	assert.Equal(t, "bob", stored(t, r, metadata.KeyLogin))
}

func TestSession_CurrentLoginEmpty(t *testing.T) {
	s, _, _ := newService(t)

	login, err := s.CurrentLogin(context.Background())
	require.NoError(t, err)
	assert.Empty(t, login)
}

func TestSession_RefreshRotates(t *testing.T) {
	s, m, r := newService(t)
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, metadata.KeyLogin, "alice"))
	require.NoError(t, r.Set(ctx, metadata.KeyRefreshToken, "r1"))

	m.On("Refresh", mock.Anything, "r1").Return(api.Tokens{AccessToken: "a2", RefreshToken: "r2"}, nil)

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, "a2", stored(t, r, metadata.KeyAccessToken))
	assert.Equal(t, "r2", stored(t, r, metadata.KeyRefreshToken))
}

func TestSession_RefreshCookieModeDropsBodyToken(t *testing.T) {
	s, m, r := newService(t)
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, metadata.KeyLogin, "alice"))

	m.On("Refresh", mock.Anything, "").Return(api.Tokens{AccessToken: "a2"}, nil)

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, "a2", stored(t, r, metadata.KeyAccessToken))
	assert.Empty(t, stored(t, r, metadata.KeyRefreshToken))
}

func TestSession_RefreshWithoutSession(t *testing.T) {
	s, _, _ := newService(t)

	require.ErrorIs(t, s.Refresh(context.Background()), ErrNoSession)
}

func TestSession_RefreshRejectedClearsSession(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			s, m, r := newService(t)
			ctx := context.Background()
			require.NoError(t, r.Set(ctx, metadata.KeyLogin, "alice"))
			require.NoError(t, r.Set(ctx, metadata.KeyRefreshToken, "r1"))

			m.On("Refresh", mock.Anything, "r1").Return(api.Tokens{}, &api.Error{Status: status, Message: "no"})

			err := s.Refresh(ctx)
			assert.Equal(t, status, api.StatusOf(err))
			assert.Empty(t, stored(t, r, metadata.KeyLogin))
			assert.Empty(t, stored(t, r, metadata.KeyRefreshToken))
		})
	}
}

func TestSession_RefreshUnavailableKeepsSession(t *testing.T) {
	s, m, r := newService(t)
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, metadata.KeyLogin, "alice"))
	require.NoError(t, r.Set(ctx, metadata.KeyRefreshToken, "r1"))

	m.On("Refresh", mock.Anything, "r1").Return(api.Tokens{}, api.ErrUnavailable)

	require.ErrorIs(t, s.Refresh(ctx), api.ErrUnavailable)
	assert.Equal(t, "r1", stored(t, r, metadata.KeyRefreshToken))
}

func TestSession_ListUsers(t *testing.T) {
	s, m, r := newService(t)
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, metadata.KeyAccessToken, "a1"))

	m.On("ListUsers", mock.Anything, "a1").Return([]api.User{{ID: 1, Login: "alice"}}, nil)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestSession_ListUsersWithoutSession(t *testing.T) {
	s, _, _ := newService(t)

	_, err := s.ListUsers(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSession_ListUsersRefreshesExpiredToken(t *testing.T) {
	s, m, r := newService(t)
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, metadata.KeyLogin, "alice"))
	require.NoError(t, r.Set(ctx, metadata.KeyAccessToken, "a1"))
	require.NoError(t, r.Set(ctx, metadata.KeyRefreshToken, "r1"))

	expired := &api.Error{Status: http.StatusUnauthorized, Message: "token expired"}
	m.On("ListUsers", mock.Anything, "a1").Return(nil, expired).Once()
	m.On("Refresh", mock.Anything, "r1").Return(api.Tokens{AccessToken: "a2", RefreshToken: "r2"}, nil).Once()
	m.On("ListUsers", mock.Anything, "a2").Return([]api.User{{ID: 1}}, nil).Once()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "r2", stored(t, r, metadata.KeyRefreshToken))
}

func TestSession_ListUsersOtherErrorNoRefresh(t *testing.T) {
	s, m, r := newService(t)
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, metadata.KeyAccessToken, "a1"))

	m.On("ListUsers", mock.Anything, "a1").
		Return(nil, &api.Error{Status: http.StatusForbidden, Message: "email not verified"})

	_, err := s.ListUsers(ctx)
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))
}

func TestSession_Logout(t *testing.T) {
	s, m, r := newService(t)
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, metadata.KeyLogin, "alice"))
	require.NoError(t, r.Set(ctx, metadata.KeyRefreshToken, "r1"))

	m.On("Logout", mock.Anything, "r1").Return(true, nil)

	ended, err := s.Logout(ctx)
	require.NoError(t, err)
	assert.True(t, ended)
	assert.Empty(t, stored(t, r, metadata.KeyLogin))
}

func TestSession_LogoutServerErrorStillClears(t *testing.T) {
	s, m, r := newService(t)
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, metadata.KeyLogin, "alice"))

	m.On("Logout", mock.Anything, "").Return(false, api.ErrUnavailable)

	_, err := s.Logout(ctx)
	require.ErrorIs(t, err, api.ErrUnavailable)
	assert.Empty(t, stored(t, r, metadata.KeyLogin))
}

func TestSession_Passthrough(t *testing.T) {
	s, m, _ := newService(t)
	ctx := context.Background()

	req := api.RegisterRequest{Email: "a@x.io", Login: "alice", FirstName: "A", Password: "password1"}
	m.On("Register", mock.Anything, req).Return("registered", nil)
	m.On("VerifyEmail", mock.Anything, "a@x.io", "123456").Return("verified", nil)
	m.On("Ping", mock.Anything).Return(nil)

	msg, err := s.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "registered", msg)

	msg, err = s.VerifyEmail(ctx, "a@x.io", "123456")
	require.NoError(t, err)
	assert.Equal(t, "verified", msg)

	require.NoError(t, s.Ping(ctx))
}
