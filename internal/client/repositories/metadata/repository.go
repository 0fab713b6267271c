// Package metadata is the client's local key/value store. It holds the
// session state (tokens and login) between CLI runs.
package metadata

import "context"

// Well-known keys.
const (
	KeyLogin        = "login"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

type Repository interface {
	// Get returns common.ErrorNotFound when key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
