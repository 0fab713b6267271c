// Package api is the HTTP client for the gophauth server. It is stateless
// with respect to tokens: callers pass them in and persist what comes back.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

type RegisterRequest struct {
	Email      string `json:"email"`
	Login      string `json:"login"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName,omitempty"`
	Patronymic string `json:"patronymic,omitempty"`
	Password   string `json:"password"`
}

// Tokens is a login or refresh result. RefreshToken is empty when the server
// sends it as a cookie; the client's jar keeps it in that case.
type Tokens struct {
	Message      string `json:"message"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type User struct {
	ID              int64   `json:"id"`
	Email           string  `json:"email"`
	Login           string  `json:"login"`
	FirstName       string  `json:"firstName"`
	LastName        *string `json:"lastName,omitempty"`
	Patronymic      *string `json:"patronymic,omitempty"`
	IsEmailVerified bool    `json:"isEmailVerified"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

func NewClient(serverURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", serverURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", "", nil, nil)
}

// Register returns the server's confirmation message.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	var resp messageResponse
	body := map[string]string{"email": email, "code": code}
	if err := c.do(ctx, http.MethodPost, "/auth/verify-email", "", body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) Login(ctx context.Context, login, password string) (Tokens, error) {
	var resp Tokens
	body := map[string]string{"login": login, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &resp); err != nil {
		return Tokens{}, err
	}
	return resp, nil
}

// Refresh rotates the refresh token. An empty token leaves the body out so a
// cookie-mode server reads it from the jar.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	var resp Tokens
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", "", refreshBody(refreshToken), &resp); err != nil {
		return Tokens{}, err
	}
	return resp, nil
}

// Logout returns true when the server ended a session and false on 204.
func (c *Client) Logout(ctx context.Context, refreshToken string) (bool, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/logout", "", refreshBody(refreshToken), &resp); err != nil {
		return false, err
	}
	return resp.Message != "", nil
}

func (c *Client) ListUsers(ctx context.Context, accessToken string) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/users", accessToken, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func refreshBody(token string) any {
	if token == "" {
		return nil
	}
	return map[string]string{"refreshToken": token}
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg messageResponse
		_ = json.NewDecoder(resp.Body).Decode(&msg)
		if msg.Message == "" {
			msg.Message = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: msg.Message}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
