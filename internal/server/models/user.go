// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. PasswordHash, EmailVerificationCode and
// RefreshToken never leave the server; use Public for responses.
type User struct {
	ID                    int64
	Login                 string
	Email                 string
	PasswordHash          string
	FirstName             string
	LastName              *string
	Patronymic            *string
	IsEmailVerified       bool
	EmailVerificationCode *string
	RefreshToken          *string
	CreatedAt             time.Time
}

// PublicUser is the externally visible projection of a User.
type PublicUser struct {
	ID              int64   `json:"id"`
	Email           string  `json:"email"`
	Login           string  `json:"login"`
	FirstName       string  `json:"firstName"`
	LastName        *string `json:"lastName,omitempty"`
	Patronymic      *string `json:"patronymic,omitempty"`
	IsEmailVerified bool    `json:"isEmailVerified"`
}

// Public strips credentials and token state from u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		Email:           u.Email,
		Login:           u.Login,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Patronymic:      u.Patronymic,
		IsEmailVerified: u.IsEmailVerified,
	}
}

// HasRefreshToken reports whether token is the user's single live refresh token.
func (u *User) HasRefreshToken(token string) bool {
	return u.RefreshToken != nil && *u.RefreshToken == token
}

// OptionalString maps "" to nil for nullable profile columns.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
