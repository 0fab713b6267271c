package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	login      string
	registered api.RegisterRequest
	verified   [2]string
	password   string
	users      []api.User
	ended      bool
	err        error
	refreshed  bool
}

func (f *fakeSession) Ping(context.Context) error { return f.err }

func (f *fakeSession) Register(_ context.Context, req api.RegisterRequest) (string, error) {
	f.registered = req
	return "registered", f.err
}

func (f *fakeSession) VerifyEmail(_ context.Context, email, code string) (string, error) {
	f.verified = [2]string{email, code}
	return "verified", f.err
}

func (f *fakeSession) Login(_ context.Context, login, password string) error {
	if f.err != nil {
		return f.err
	}
	f.login, f.password = login, password
	return nil
}

func (f *fakeSession) CurrentLogin(context.Context) (string, error) { return f.login, nil }

func (f *fakeSession) Refresh(context.Context) error {
	f.refreshed = true
	return f.err
}

func (f *fakeSession) ListUsers(context.Context) ([]api.User, error) { return f.users, f.err }

func (f *fakeSession) Logout(context.Context) (bool, error) {
	f.login = ""
	return f.ended, f.err
}

// stubInputs feeds answers to successive prompts and a fixed password.
func stubInputs(t *testing.T, password string, answers ...string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(answers) == 0 {
			return "", io.EOF
		}
		v := answers[0]
		answers = answers[1:]
		return v, nil
	}
	getPassword = func(io.Writer) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

func newTestApp(s *fakeSession) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{session: s, out: &out}, &out
}

func TestApp_Register(t *testing.T) {
	stubInputs(t, "password1", "a@x.io", "alice", "Alice", "", "")
	s := &fakeSession{}
	a, out := newTestApp(s)

	require.NoError(t, a.Register(context.Background()))
	assert.Equal(t, api.RegisterRequest{Email: "a@x.io", Login: "alice", FirstName: "Alice", Password: "password1"}, s.registered)
	assert.Equal(t, "registered\n", out.String())
}

func TestApp_RegisterInputError(t *testing.T) {
	stubInputs(t, "password1", "a@x.io")
	a, _ := newTestApp(&fakeSession{})

	require.ErrorIs(t, a.Register(context.Background()), io.EOF)
}

func TestApp_Verify(t *testing.T) {
	stubInputs(t, "", "a@x.io", "123456")
	s := &fakeSession{}
	a, out := newTestApp(s)

	require.NoError(t, a.Verify(context.Background()))
	assert.Equal(t, [2]string{"a@x.io", "123456"}, s.verified)
	assert.Equal(t, "verified\n", out.String())
}

func TestApp_LoginAndStatus(t *testing.T) {
	stubInputs(t, "password1", "alice")
	s := &fakeSession{}
	a, out := newTestApp(s)
	ctx := context.Background()

	assert.False(t, a.isLoggedIn(ctx))
	assert.Empty(t, a.status(ctx))

	require.NoError(t, a.Login(ctx))
	assert.Equal(t, "password1", s.password)
	assert.True(t, a.isLoggedIn(ctx))
	assert.Equal(t, "(alice) ", a.status(ctx))
	assert.Contains(t, out.String(), "Logged in as alice")
}

func TestApp_LoginError(t *testing.T) {
	stubInputs(t, "bad", "alice")
	apiErr := &api.Error{Status: http.StatusUnauthorized, Message: "invalid password"}
	a, _ := newTestApp(&fakeSession{err: apiErr})

	require.ErrorIs(t, a.Login(context.Background()), apiErr)
}

func TestApp_Users(t *testing.T) {
	last := "Smith"
	s := &fakeSession{users: []api.User{
		{ID: 1, Login: "alice", Email: "a@x.io", FirstName: "Alice", LastName: &last, IsEmailVerified: true},
	}}
	a, out := newTestApp(s)

	require.NoError(t, a.Users(context.Background()))
	assert.Contains(t, out.String(), "LOGIN")
	assert.Contains(t, out.String(), "Alice Smith")
	assert.Contains(t, out.String(), "true")
}

func TestApp_RefreshAndLogout(t *testing.T) {
	s := &fakeSession{login: "alice", ended: true}
	a, out := newTestApp(s)
	ctx := context.Background()

	require.NoError(t, a.Refresh(ctx))
	assert.True(t, s.refreshed)

	require.NoError(t, a.Logout(ctx))
	assert.Contains(t, out.String(), "Tokens refreshed")
	assert.Contains(t, out.String(), "Logged out")

	s.ended = false
	require.NoError(t, a.Logout(ctx))
	assert.Contains(t, out.String(), "No active session")
}

func TestApp_CommandErrors(t *testing.T) {
	boom := errors.New("boom")
	a, _ := newTestApp(&fakeSession{err: boom})
	ctx := context.Background()

	require.ErrorIs(t, a.Users(ctx), boom)
	require.ErrorIs(t, a.Refresh(ctx), boom)
	require.ErrorIs(t, a.Logout(ctx), boom)
}
