// Package services contains server-side business logic. This file implements
// UserService, which handles registration, email verification, login and the
// refresh-token lifecycle.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// Client-facing messages.
const (
	MsgRegistered          = "registration successful, please check your email to confirm your address"
	MsgUserExists          = "user with this email or login already exists"
	MsgInvalidCode         = "invalid email or verification code"
	MsgAlreadyVerified     = "email is already verified"
	MsgEmailVerified       = "email verified successfully"
	MsgLoginNotFound       = "user with this login not found"
	MsgVerifyBeforeLogin   = "please verify your email before logging in"
	MsgInvalidPassword     = "invalid password"
	MsgLoggedIn            = "login successful"
	MsgRefreshMissing      = "refresh token not found"
	MsgRefreshInvalid      = "invalid refresh token"
	MsgRefreshExpired      = "refresh token expired or invalid"
	MsgRefreshed           = "token refreshed"
	MsgLoggedOut           = "logged out successfully"
	MsgInternalServerError = "internal server error"
)

// Operation names used as metric labels.
const (
	OpRegister    = "register"
	OpVerifyEmail = "verify_email"
	OpLogin       = "login"
	OpRefresh     = "refresh"
	OpLogout      = "logout"
	OpListUsers   = "list_users"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenIssuer interface {
	IssueTokenPair(userID int64, login string) (auth.TokenPair, error)
	VerifyRefreshToken(token string) (auth.Identity, error)
}

type CodeIssuer interface {
	GenerateCode() (string, error)
	Dispatch(ctx context.Context, email, code string) error
}

// RegisterInput is the validated registration request.
type RegisterInput struct {
	Email      string
	Login      string
	Password   string
	FirstName  string
	LastName   string
	Patronymic string
}

// LogoutResult tells the transport whether a session was presented.
type LogoutResult int

const (
	LogoutNoSession LogoutResult = iota
	LogoutCleared
)

// UserService provides the authentication flows. Every returned error is a
// *common.AuthError.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	codes       CodeIssuer
	logger      logging.Logger
	metrics     *metrics.Metrics
}

// NewUserService wires the service. db may be nil when the repository
// manager does not need a connection (in-memory store).
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer,
	codes CodeIssuer, logger logging.Logger, mt *metrics.Metrics) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		codes:       codes,
		logger:      logger.With("module", "user_service"),
		metrics:     mt,
	}
}

func (s *UserService) users() users.Repository {
	return s.repomanager.Users(s.db)
}

// Register creates an unverified user and mails a verification code. If the
// mail cannot be sent the user is removed again and the call fails.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (_ *models.User, err error) {
	defer func() { s.observe(ctx, OpRegister, err) }()

	repo := s.users()

	exists, err := repo.ExistsByEmailOrLogin(ctx, in.Email, in.Login)
	if err != nil {
		return nil, internal(err)
	}
	if exists {
		return nil, common.NewAuthError(common.KindConflict, MsgUserExists)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal(err)
	}

	code, err := s.codes.GenerateCode()
	if err != nil {
		return nil, internal(err)
	}

	user, err := repo.Create(ctx, &models.User{
		Login:                 in.Login,
		Email:                 in.Email,
		PasswordHash:          hash,
		FirstName:             in.FirstName,
		LastName:              models.OptionalString(in.LastName),
		Patronymic:            models.OptionalString(in.Patronymic),
		EmailVerificationCode: &code,
	})
	if errors.Is(err, common.ErrorAlreadyExists) {
		return nil, common.NewAuthError(common.KindConflict, MsgUserExists)
	}
	if err != nil {
		return nil, internal(err)
	}

	if err := s.codes.Dispatch(ctx, user.Email, code); err != nil {
		if delErr := repo.Delete(context.WithoutCancel(ctx), user.ID); delErr != nil {
			s.logger.Error(ctx, "could not remove user after failed verification mail",
				"user_id", user.ID, "error", delErr)
		}
		return nil, internal(err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "login", user.Login)
	return user, nil
}

// VerifyEmail marks the user's email as verified when code matches the
// pending one. Failures leave the user untouched.
func (s *UserService) VerifyEmail(ctx context.Context, email, code string) (err error) {
	defer func() { s.observe(ctx, OpVerifyEmail, err) }()

	repo := s.users()

	user, err := repo.GetByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		return common.NewAuthError(common.KindBadRequest, MsgInvalidCode)
	}
	if err != nil {
		return internal(err)
	}

	if user.EmailVerificationCode == nil ||
		subtle.ConstantTimeCompare([]byte(*user.EmailVerificationCode), []byte(code)) != 1 {
		return common.NewAuthError(common.KindBadRequest, MsgInvalidCode)
	}

	if user.IsEmailVerified {
		return common.NewAuthError(common.KindBadRequest, MsgAlreadyVerified)
	}

	if err := repo.MarkEmailVerified(ctx, user.ID); err != nil {
		return internal(err)
	}

	s.logger.Info(ctx, "email verified", "user_id", user.ID)
	return nil
}

// Login checks credentials of a verified user and issues a token pair whose
// refresh token replaces any previous one.
func (s *UserService) Login(ctx context.Context, login, password string) (_ auth.TokenPair, err error) {
	defer func() { s.observe(ctx, OpLogin, err) }()

	repo := s.users()

	user, err := repo.GetUserByLogin(ctx, login)
	if errors.Is(err, common.ErrorNotFound) {
		return auth.TokenPair{}, common.NewAuthError(common.KindNotFound, MsgLoginNotFound)
	}
	if err != nil {
		return auth.TokenPair{}, internal(err)
	}

	if !user.IsEmailVerified {
		return auth.TokenPair{}, common.NewAuthError(common.KindForbidden, MsgVerifyBeforeLogin)
	}

	err = s.hasher.Compare(user.PasswordHash, password)
	if errors.Is(err, common.ErrorUnauthorized) {
		return auth.TokenPair{}, common.NewAuthError(common.KindUnauthorized, MsgInvalidPassword)
	}
	if err != nil {
		return auth.TokenPair{}, internal(err)
	}

	pair, err := s.tokens.IssueTokenPair(user.ID, user.Login)
	if err != nil {
		return auth.TokenPair{}, internal(err)
	}

	if err := repo.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return auth.TokenPair{}, internal(err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, nil
}

// RefreshToken exchanges the user's current refresh token for a new pair.
// The swap is a compare-and-set on the stored token, so of several
// concurrent calls with the same token at most one succeeds.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (_ auth.TokenPair, err error) {
	defer func() { s.observe(ctx, OpRefresh, err) }()

	if refreshToken == "" {
		return auth.TokenPair{}, common.NewAuthError(common.KindUnauthorized, MsgRefreshMissing)
	}

	repo := s.users()

	user, err := repo.GetByRefreshToken(ctx, refreshToken)
	if errors.Is(err, common.ErrorNotFound) {
		return auth.TokenPair{}, common.NewAuthError(common.KindForbidden, MsgRefreshInvalid)
	}
	if err != nil {
		return auth.TokenPair{}, internal(err)
	}

	id, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil || id.UserID != user.ID {
		return auth.TokenPair{}, common.WrapAuthError(common.KindForbidden, MsgRefreshExpired, err)
	}

	pair, err := s.tokens.IssueTokenPair(user.ID, user.Login)
	if err != nil {
		return auth.TokenPair{}, internal(err)
	}

	swapped, err := repo.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return auth.TokenPair{}, internal(err)
	}
	if !swapped {
		return auth.TokenPair{}, common.NewAuthError(common.KindForbidden, MsgRefreshInvalid)
	}

	return pair, nil
}

// Logout forgets refreshToken. An empty token is a no-op reported as
// LogoutNoSession; an unknown token is cleared silently.
func (s *UserService) Logout(ctx context.Context, refreshToken string) (_ LogoutResult, err error) {
	defer func() { s.observe(ctx, OpLogout, err) }()

	if refreshToken == "" {
		return LogoutNoSession, nil
	}

	n, err := s.users().ClearRefreshToken(ctx, refreshToken)
	if err != nil {
		return LogoutNoSession, internal(err)
	}

	s.logger.Debug(ctx, "refresh token cleared", "affected", n)
	return LogoutCleared, nil
}

// ListUsers returns the public projection of every user.
func (s *UserService) ListUsers(ctx context.Context) (_ []models.PublicUser, err error) {
	defer func() { s.observe(ctx, OpListUsers, err) }()

	list, err := s.users().List(ctx)
	if err != nil {
		return nil, internal(err)
	}

	result := make([]models.PublicUser, 0, len(list))
	for _, u := range list {
		result = append(result, u.Public())
	}
	return result, nil
}

func internal(err error) *common.AuthError {
	return common.WrapAuthError(common.KindServerError, MsgInternalServerError, err)
}

func (s *UserService) observe(ctx context.Context, op string, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		ae := common.AsAuthError(err)
		outcome = ae.Kind.String()
		if ae.Kind == common.KindServerError {
			s.logger.Error(ctx, "operation failed", "operation", op, "error", err)
		}
	}
	s.metrics.ObserveAuth(op, outcome)
}
