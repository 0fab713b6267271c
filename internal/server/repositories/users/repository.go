// Package users is the credential store adapter: lookup and update of user
// records by id, login, email or current refresh token.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository defines the user store. Lookups return common.ErrorNotFound for
// a missing row; Create returns common.ErrorAlreadyExists when the login or
// email is taken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id int64) error

	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	ExistsByEmailOrLogin(ctx context.Context, email, login string) (bool, error)
	List(ctx context.Context) ([]*models.User, error)

	// MarkEmailVerified sets the verified flag and clears the pending code.
	MarkEmailVerified(ctx context.Context, id int64) error

	// SetRefreshToken overwrites the user's refresh token unconditionally.
	SetRefreshToken(ctx context.Context, id int64, token string) error

	// RotateRefreshToken replaces oldToken with newToken only if oldToken is
	// still the stored value. It reports whether the swap happened; this is
	// the serialization point for concurrent refreshes.
	RotateRefreshToken(ctx context.Context, id int64, oldToken, newToken string) (bool, error)

	// ClearRefreshToken removes token from whichever user holds it and
	// returns the number of affected users (0 or 1).
	ClearRefreshToken(ctx context.Context, token string) (int64, error)
}
