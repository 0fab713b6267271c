package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("empty body")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// writeError renders err as {"message": ...}. Only the AuthError message
// reaches the client; server errors are logged with their cause.
func writeError(ctx context.Context, w http.ResponseWriter, logger logging.Logger, err error) {
	ae := common.AsAuthError(err)
	if ae.Kind == common.KindServerError {
		logger.Error(ctx, "request failed", "request_id", RequestIDFromContext(ctx), "error", err)
	}
	writeMessage(w, ae.HTTPStatus(), ae.Message)
}

// decodeJSON reads a JSON body into dst. An empty body yields errEmptyBody.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

type validatable interface {
	Validate() error
}

// decodeAndValidate writes a 400 and returns false when the body is missing,
// malformed or fails validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst validatable) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := dst.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
