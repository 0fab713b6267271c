package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	failOn   string
	calls    []string
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return errors.New(name + " failed")
	}
	return nil
}

func (f *fakeExec) isLoggedIn(context.Context) bool { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error  { return f.record("register") }
func (f *fakeExec) Verify(context.Context) error    { return f.record("verify") }
func (f *fakeExec) Users(context.Context) error     { return f.record("users") }
func (f *fakeExec) Refresh(context.Context) error   { return f.record("refresh") }

func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}

func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := captureOutput(t)

	input := strings.Join([]string{
		"help", "register", "verify", "", "login", "help", "users", "refresh", "logout", "foobar", "exit", "users",
	}, "\n")
	exec := &fakeExec{}

	runREPL(context.Background(), exec, func() string { return "" }, rdr(input))

	assert.Equal(t, []string{"register", "verify", "login", "users", "refresh", "logout"}, exec.calls)
	assert.Contains(t, *out, "Available commands: register, verify, login, exit")
	assert.Contains(t, *out, "Available commands: users, refresh, logout, register, verify, login, exit")
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_PrintsErrorsAndContinues(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{failOn: "login"}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("login\nusers\n"))

	assert.Equal(t, []string{"login", "users"}, exec.calls)
	assert.Contains(t, *out, "Error: login failed")
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	captureOutput(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("refresh"))

	assert.Equal(t, []string{"refresh"}, exec.calls)
}
