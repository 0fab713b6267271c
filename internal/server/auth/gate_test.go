package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier map[string]error

func (f fakeVerifier) VerifyAccessToken(token string) (Identity, error) {
	if err, ok := f[token]; ok && err != nil {
		return Identity{}, err
	}
	switch token {
	case "good":
		return Identity{UserID: 1, Login: "alice"}, nil
	case "unverified":
		return Identity{UserID: 2, Login: "bob"}, nil
	case "ghost":
		return Identity{UserID: 3, Login: "ghost"}, nil
	case "broken-store":
		return Identity{UserID: 4, Login: "dan"}, nil
	}
	return Identity{}, common.ErrInvalidToken
}

type fakeUsers map[int64]*models.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if id == 4 {
		return nil, errors.New("connection refused")
	}
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func TestGate_Admit(t *testing.T) {
	gate := NewGate(
		fakeVerifier{"old": common.ErrTokenExpired},
		fakeUsers{
			1: {ID: 1, Login: "alice", IsEmailVerified: true},
			2: {ID: 2, Login: "bob"},
		},
	)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"no header", "", http.StatusUnauthorized, MsgMissingHeader},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, MsgMalformedToken},
		{"lowercase scheme", "bearer good", http.StatusUnauthorized, MsgMalformedToken},
		{"token without scheme", "good", http.StatusUnauthorized, MsgMalformedToken},
		{"bare scheme", "Bearer", http.StatusUnauthorized, MsgEmptyToken},
		{"scheme with space", "Bearer ", http.StatusUnauthorized, MsgEmptyToken},
		{"expired", "Bearer old", http.StatusUnauthorized, MsgTokenExpired},
		{"invalid", "Bearer forged", http.StatusUnauthorized, MsgInvalidToken},
		{"deleted user", "Bearer ghost", http.StatusUnauthorized, MsgUserNotFound},
		{"unverified user", "Bearer unverified", http.StatusForbidden, MsgEmailNotVerified},
		{"store failure", "Bearer broken-store", http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gate.Admit(context.Background(), tt.header)
			require.Error(t, err)

			var ae *common.AuthError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.wantStatus, ae.HTTPStatus())
			assert.Equal(t, tt.wantMsg, ae.Message)
		})
	}
}

func TestGate_AdmitsVerifiedUser(t *testing.T) {
	gate := NewGate(fakeVerifier{}, fakeUsers{1: {ID: 1, Login: "alice", IsEmailVerified: true}})

	id, err := gate.Admit(context.Background(), "Bearer good")
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 1, Login: "alice"}, id)
}
