// Package common contains shared constants and sentinel errors used across
// gophauth components.
package common

const (
	// AuthorizationHeaderName carries "Bearer <access token>" on authenticated requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix is the scheme prefix expected in the Authorization header.
	BearerPrefix = "Bearer "

	// RefreshTokenCookieName is used when refresh tokens travel as cookies.
	RefreshTokenCookieName = "refreshToken"

	// RequestIDHeaderName echoes the per-request id back to the caller.
	RequestIDHeaderName = "X-Request-ID"

	// VerificationCodeLength is the number of digits in an email verification code.
	VerificationCodeLength = 6
)
