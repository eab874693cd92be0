// Package httpx holds the JSON request/response plumbing shared by the
// domain handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/clubreserve/clubreserve/platform/go/logging"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

// ErrorBody is the error envelope every handler returns.
type ErrorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromRequest(r, zap.NewNop()).Warn("response encode failed", zap.Error(err))
	}
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, r *http.Request, status int, msg string, details ...string) {
	JSON(w, r, status, ErrorBody{Error: msg, Details: details})
}

// Decode parses the request body into v, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Internal maps an unclassified error: transient storage trouble becomes 503,
// anything else 500. The cause is logged, never echoed to the client.
func Internal(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromRequest(r, zap.NewNop()).Error("request failed", zap.Error(err))
	if errors.Is(err, persistence.ErrTransient) || persistence.IsTransient(err) {
		Error(w, r, http.StatusServiceUnavailable, "temporarily unavailable, please retry")
		return
	}
	Error(w, r, http.StatusInternalServerError, "internal error")
}
