package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with full technical detail and request ID, then
// returned to the client as an ErrorResponse built by core.MapError. The
// HTTP status is derived from the error's type in statusFor.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/servicepulse/internal/core"
	"github.com/JonMunkholm/servicepulse/internal/logging"
)

var (
	errNoFile      = errors.New("no file provided")
	errBadRequest  = errors.New("invalid request body")
	errRateLimited = errors.New("rate limit exceeded")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error and writes the user-facing JSON
// response. A statusCode of 0 derives the status from err.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	if statusCode == 0 {
		statusCode = statusFor(err)
	}
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	// Parse and edit failures carry details the operator needs to fix the input.
	var pe *core.ParseError
	var ee *core.EditRejectedError
	var fe *core.FileConstraintError
	if errors.As(err, &pe) || errors.As(err, &ee) || errors.As(err, &fe) {
		resp.Error = err.Error()
	}
	if errors.Is(err, core.ErrSessionBusy) {
		w.Header().Set("Retry-After", "1")
	}
	writeJSONStatus(w, statusCode, resp)
}

// statusFor maps a session error to an HTTP status.
func statusFor(err error) int {
	var fe *core.FileConstraintError
	var pe *core.ParseError
	var ee *core.EditRejectedError

	switch {
	case errors.As(err, &fe):
		if core.MapError(err).Code == "FILE001" {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case errors.As(err, &pe), errors.As(err, &ee):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errNoFile), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrIssueNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNotConfirmable):
		return http.StatusConflict
	case errors.Is(err, core.ErrNoDataset):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSessionBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}
