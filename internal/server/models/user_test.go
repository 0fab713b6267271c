package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_PublicOmitsSecrets(t *testing.T) {
	code := "123456"
	token := "refresh"
	u := &User{
		ID:                    1,
		Login:                 "abc",
		Email:                 "a@b.com",
		PasswordHash:          "$2a$hash",
		FirstName:             "A",
		LastName:              OptionalString("B"),
		EmailVerificationCode: &code,
		RefreshToken:          &token,
	}

	b, err := json.Marshal(u.Public())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))

	assert.Equal(t, "abc", m["login"])
	assert.Equal(t, "B", m["lastName"])
	assert.NotContains(t, m, "patronymic")
	for _, secret := range []string{"password", "passwordHash", "refreshToken", "emailVerificationCode"} {
		assert.NotContains(t, m, secret)
	}
}

func TestUser_HasRefreshToken(t *testing.T) {
	token := "t1"
	u := &User{RefreshToken: &token}

	assert.True(t, u.HasRefreshToken("t1"))
	assert.False(t, u.HasRefreshToken("t2"))
	assert.False(t, (&User{}).HasRefreshToken(""))
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, OptionalString(""))
	require.NotNil(t, OptionalString("x"))
	assert.Equal(t, "x", *OptionalString("x"))
}
