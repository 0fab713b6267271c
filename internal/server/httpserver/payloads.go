package httpserver

import (
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordLength = 72

type RegisterRequest struct {
	Email      string `json:"email"`
	Login      string `json:"login"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Patronymic string `json:"patronymic"`
	Password   string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Login, validation.Required, validation.Length(3, 0)),
		validation.Field(&r.FirstName, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, maxPasswordLength)),
	)
}

func (r RegisterRequest) toInput() services.RegisterInput {
	return services.RegisterInput{
		Email:      r.Email,
		Login:      r.Login,
		Password:   r.Password,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Patronymic: r.Patronymic,
	}
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (r VerifyEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required,
			validation.Length(common.VerificationCodeLength, common.VerificationCodeLength)),
	)
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Login, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// RefreshRequest is the optional body of /auth/refresh and /auth/logout in
// body transport mode.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse omits the refresh token when it travels as a cookie.
type TokenResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}
