package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Rejection messages returned verbatim to the client.
const (
	MsgMissingHeader    = "missing authorization header"
	MsgMalformedToken   = "malformed token"
	MsgEmptyToken       = "empty token"
	MsgTokenExpired     = "token expired"
	MsgInvalidToken     = "invalid token"
	MsgUserNotFound     = "user not found"
	MsgEmailNotVerified = "email not verified"
)

type AccessVerifier interface {
	VerifyAccessToken(token string) (Identity, error)
}

type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Gate decides whether a request is admitted based on its Authorization
// header. Every rejection is a *common.AuthError.
type Gate struct {
	tokens AccessVerifier
	users  UserFinder
}

func NewGate(tokens AccessVerifier, users UserFinder) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Admit walks the header through the checks in order and returns the
// identity of the first request that passes all of them.
func (g *Gate) Admit(ctx context.Context, authorization string) (Identity, error) {
	if authorization == "" {
		return Identity{}, common.NewAuthError(common.KindUnauthorized, MsgMissingHeader)
	}

	token, ok := bearerToken(authorization)
	if !ok {
		return Identity{}, common.NewAuthError(common.KindUnauthorized, MsgMalformedToken)
	}
	if token == "" {
		return Identity{}, common.NewAuthError(common.KindUnauthorized, MsgEmptyToken)
	}

	id, err := g.tokens.VerifyAccessToken(token)
	if errors.Is(err, common.ErrTokenExpired) {
		return Identity{}, common.NewAuthError(common.KindUnauthorized, MsgTokenExpired)
	}
	if err != nil {
		return Identity{}, common.WrapAuthError(common.KindUnauthorized, MsgInvalidToken, err)
	}

	user, err := g.users.GetByID(ctx, id.UserID)
	if errors.Is(err, common.ErrorNotFound) {
		return Identity{}, common.NewAuthError(common.KindUnauthorized, MsgUserNotFound)
	}
	if err != nil {
		return Identity{}, common.WrapAuthError(common.KindServerError, "internal server error", err)
	}

	if !user.IsEmailVerified {
		return Identity{}, common.NewAuthError(common.KindForbidden, MsgEmailNotVerified)
	}

	return id, nil
}

// bearerToken splits "Bearer <token>". A bare "Bearer" is well-formed with
// an empty token.
func bearerToken(header string) (string, bool) {
	if header == strings.TrimSpace(common.BearerPrefix) {
		return "", true
	}
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(common.BearerPrefix):]), true
}
