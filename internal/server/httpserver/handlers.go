package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	VerifyEmail(ctx context.Context, email, code string) error
	Login(ctx context.Context, login, password string) (auth.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) (services.LogoutResult, error)
	ListUsers(ctx context.Context) ([]models.PublicUser, error)
}

// Options controls how the refresh token travels between client and server.
type Options struct {
	// Transport is config.TransportBody or config.TransportCookie.
	Transport    string
	CookieSecure bool
	// CookieMaxAge is the refresh cookie lifetime, normally the refresh token TTL.
	CookieMaxAge time.Duration
}

type Handlers struct {
	users  UserService
	logger logging.Logger
	opts   Options
}

func NewHandlers(users UserService, logger logging.Logger, opts Options) *Handlers {
	return &Handlers{users: users, logger: logger.With("module", "http_server"), opts: opts}
}

func (h *Handlers) cookieMode() bool {
	return h.opts.Transport == config.TransportCookie
}

func (h *Handlers) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if _, err := h.users.Register(r.Context(), req.toInput()); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeMessage(w, http.StatusCreated, services.MsgRegistered)
}

func (h *Handlers) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.users.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeMessage(w, http.StatusOK, services.MsgEmailVerified)
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pair, err := h.users.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	h.writeTokens(w, services.MsgLoggedIn, pair)
}

func (h *Handlers) refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := h.readRefreshToken(w, r)
	if !ok {
		return
	}

	pair, err := h.users.RefreshToken(r.Context(), token)
	if err != nil {
		if h.cookieMode() && token != "" {
			h.clearRefreshCookie(w)
		}
		writeError(r.Context(), w, h.logger, err)
		return
	}

	h.writeTokens(w, services.MsgRefreshed, pair)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := h.readRefreshToken(w, r)
	if !ok {
		return
	}

	res, err := h.users.Logout(r.Context(), token)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	if res == services.LogoutNoSession {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if h.cookieMode() {
		h.clearRefreshCookie(w)
	}
	writeMessage(w, http.StatusOK, services.MsgLoggedOut)
}

func (h *Handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// readRefreshToken takes the token from the cookie or from the optional
// JSON body depending on the transport. A missing token is returned as "".
func (h *Handlers) readRefreshToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.cookieMode() {
		c, err := r.Cookie(common.RefreshTokenCookieName)
		if err != nil {
			return "", true
		}
		return c.Value, true
	}

	var req RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	return req.RefreshToken, true
}

func (h *Handlers) writeTokens(w http.ResponseWriter, message string, pair auth.TokenPair) {
	resp := TokenResponse{Message: message, AccessToken: pair.AccessToken}
	if h.cookieMode() {
		h.setRefreshCookie(w, pair.RefreshToken)
	} else {
		resp.RefreshToken = pair.RefreshToken
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.opts.CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handlers) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}
