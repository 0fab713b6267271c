// Package services holds the client's application logic: it drives the
// server API and keeps the local session in the metadata store.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

// ErrNoSession is returned by operations that need a stored session when
// there is none.
var ErrNoSession = errors.New("not logged in")

// API is the subset of api.Client the session service drives.
type API interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, req api.RegisterRequest) (string, error)
	VerifyEmail(ctx context.Context, email, code string) (string, error)
	Login(ctx context.Context, login, password string) (api.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (api.Tokens, error)
	Logout(ctx context.Context, refreshToken string) (bool, error)
	ListUsers(ctx context.Context, accessToken string) ([]api.User, error)
}

type SessionService struct {
	api API
	db  *sql.DB
}

func NewSessionService(client API, db *sql.DB) *SessionService {
	return &SessionService{api: client, db: db}
}

func (s *SessionService) repo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (s *SessionService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx)
}

func (s *SessionService) Register(ctx context.Context, req api.RegisterRequest) (string, error) {
	return s.api.Register(ctx, req)
}

func (s *SessionService) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	return s.api.VerifyEmail(ctx, email, code)
}

// Login authenticates and replaces the stored session.
func (s *SessionService) Login(ctx context.Context, login, password string) error {
	tokens, err := s.api.Login(ctx, login, password)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		if err := r.Clear(ctx); err != nil {
			return err
		}
		if err := r.Set(ctx, metadata.KeyLogin, login); err != nil {
			return err
		}
		return saveTokens(ctx, r, tokens)
	})
}

// CurrentLogin returns the login of the stored session, or "" when logged out.
func (s *SessionService) CurrentLogin(ctx context.Context) (string, error) {
	login, err := s.repo(s.db).Get(ctx, metadata.KeyLogin)
	if errors.Is(err, common.ErrorNotFound) {
		return "", nil
	}
	return login, err
}

// Refresh rotates the stored token pair. A rejected refresh token ends the
// local session.
func (s *SessionService) Refresh(ctx context.Context) error {
	r := s.repo(s.db)

	if _, err := r.Get(ctx, metadata.KeyLogin); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrNoSession
		}
		return err
	}

	refreshToken, err := s.optional(ctx, r, metadata.KeyRefreshToken)
	if err != nil {
		return err
	}

	tokens, err := s.api.Refresh(ctx, refreshToken)
	if err != nil {
		if status := api.StatusOf(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
			if clearErr := r.Clear(ctx); clearErr != nil {
				return errors.Join(err, clearErr)
			}
		}
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return saveTokens(ctx, s.repo(tx), tokens)
	})
}

// ListUsers fetches the user list, refreshing once when the access token
// has expired.
func (s *SessionService) ListUsers(ctx context.Context) ([]api.User, error) {
	access, err := s.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.api.ListUsers(ctx, access)
	if err == nil || !api.IsTokenExpired(err) {
		return users, err
	}

	if err := s.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	access, err = s.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.ListUsers(ctx, access)
}

// Logout ends the server session and always drops the local one. It reports
// whether the server had a session to end.
func (s *SessionService) Logout(ctx context.Context) (bool, error) {
	r := s.repo(s.db)

	refreshToken, err := s.optional(ctx, r, metadata.KeyRefreshToken)
	if err != nil {
		return false, err
	}

	ended, apiErr := s.api.Logout(ctx, refreshToken)

	if err := r.Clear(ctx); err != nil {
		return false, errors.Join(apiErr, err)
	}
	return ended, apiErr
}

func (s *SessionService) accessToken(ctx context.Context) (string, error) {
	access, err := s.repo(s.db).Get(ctx, metadata.KeyAccessToken)
	if errors.Is(err, common.ErrorNotFound) {
		return "", ErrNoSession
	}
	return access, err
}

func (s *SessionService) optional(ctx context.Context, r metadata.Repository, key string) (string, error) {
	v, err := r.Get(ctx, key)
	if errors.Is(err, common.ErrorNotFound) {
		return "", nil
	}
	return v, err
}

// saveTokens stores a pair. An empty refresh token means the server keeps it
// in a cookie, so any stale body token is removed.
func saveTokens(ctx context.Context, r metadata.Repository, tokens api.Tokens) error {
	if err := r.Set(ctx, metadata.KeyAccessToken, tokens.AccessToken); err != nil {
		return err
	}
	if tokens.RefreshToken == "" {
		return r.Delete(ctx, metadata.KeyRefreshToken)
	}
	return r.Set(ctx, metadata.KeyRefreshToken, tokens.RefreshToken)
}
