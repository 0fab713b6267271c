package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// getSimpleText and getPassword are swapped out in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) ask(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, a.out)
}

func (a *App) askPassword() (string, error) {
	pw, err := getPassword(a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

func (a *App) Register(ctx context.Context) error {
	var req api.RegisterRequest
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Enter email", &req.Email},
		{"Enter login", &req.Login},
		{"Enter first name", &req.FirstName},
		{"Enter last name (optional)", &req.LastName},
		{"Enter patronymic (optional)", &req.Patronymic},
	}
	for _, f := range fields {
		v, err := a.ask(f.prompt)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	password, err := a.askPassword()
	if err != nil {
		return err
	}
	req.Password = password

	msg, err := a.session.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	code, err := a.ask("Enter verification code")
	if err != nil {
		return err
	}

	msg, err := a.session.VerifyEmail(ctx, email, code)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	login, err := a.ask("Enter login")
	if err != nil {
		return err
	}
	password, err := a.askPassword()
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, login, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged in as", login)
	return nil
}

func (a *App) Users(ctx context.Context) error {
	users, err := a.session.ListUsers(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%-6s %-20s %-30s %-30s %s\n", "ID", "LOGIN", "EMAIL", "NAME", "VERIFIED")
	for _, u := range users {
		fmt.Fprintf(a.out, "%-6d %-20s %-30s %-30s %t\n", u.ID, u.Login, u.Email, fullName(u), u.IsEmailVerified)
	}
	return nil
}

func fullName(u api.User) string {
	parts := []string{u.FirstName}
	if u.Patronymic != nil {
		parts = append(parts, *u.Patronymic)
	}
	if u.LastName != nil {
		parts = append(parts, *u.LastName)
	}
	return strings.Join(parts, " ")
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.session.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Tokens refreshed")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	ended, err := a.session.Logout(ctx)
	if err != nil {
		return err
	}
	if ended {
		fmt.Fprintln(a.out, "Logged out")
	} else {
		fmt.Fprintln(a.out, "No active session")
	}
	return nil
}
