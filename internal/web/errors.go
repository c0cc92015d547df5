package web

// errors.go turns session failures into HTTP responses.
//
// The technical error is logged with the request ID; the client gets the
// user-facing message and support code from core.MapError. Status codes:
//
//	connection failure   502
//	query failure        400
//	limiter saturated    503
//	everything else      500

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/querydump/internal/core"
	"github.com/JonMunkholm/querydump/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
}

// statusFor picks the HTTP status for a failed session.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrConnection):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes a JSON error body with the given status.
// Provider diagnostics for query errors are passed through as Detail since
// they describe the caller's own SQL.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	if errors.Is(err, core.ErrQuery) {
		resp.Detail = core.Diagnostic(err)
	}
	writeJSON(w, status, resp)
}
