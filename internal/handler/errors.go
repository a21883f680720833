package handler

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/pkordes/dockgate/internal/domain"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error":{...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// operatorError is implemented by the typed domain errors that carry a
// sentence an operator can act on.
type operatorError interface {
	error
	OperatorMessage() string
}

// writeError maps err onto a status code and an ErrorResponse.
// Unexpected errors are logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	msg := "internal server error"

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = http.StatusNotFound, "not_found", unwrapMessage(err, domain.ErrNotFound)
	case errors.Is(err, domain.ErrValidation):
		status, code, msg = http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err, domain.ErrValidation)
	case errors.Is(err, domain.ErrInvalidState):
		status, code, msg = http.StatusConflict, "invalid_state", operatorMessage(err)
	case errors.Is(err, domain.ErrGateOccupied):
		status, code, msg = http.StatusConflict, "gate_occupied", operatorMessage(err)
	case errors.Is(err, domain.ErrGateUnavailable):
		status, code, msg = http.StatusConflict, "gate_unavailable", unwrapMessage(err, domain.ErrGateUnavailable)
	case errors.Is(err, domain.ErrOverrideDisabled):
		status, code, msg = http.StatusForbidden, "override_disabled", "manual exit override is switched off"
	case errors.Is(err, domain.ErrPersistence):
		status, code, msg = http.StatusServiceUnavailable, "persistence_error", "the database is unavailable, please retry"
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: msg}})
}

// requestError answers a request rejected before reaching the service layer
// (e.g. missing or malformed body).
func requestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}})
}

func operatorMessage(err error) string {
	var oe operatorError
	if errors.As(err, &oe) {
		return oe.OperatorMessage()
	}
	return err.Error()
}

// unwrapMessage extracts the human-readable part after a wrapped sentinel.
// e.g. "service.VisitService.Reject: validation error: a reason is required" → "a reason is required"
func unwrapMessage(err, sentinel error) string {
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// bind decodes the request body into dst and answers the request itself when
// the body is unusable. An empty body is accepted when optional is true.
// The body is read in full first so a size-limit error is not mistaken for
// an empty body by the streaming decoder.
func bind(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{Code: "body_too_large", Message: "request body is too large"}})
			return false
		}
		requestError(w, "request body could not be read")
		return false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if optional {
			return true
		}
		requestError(w, "request body is required")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		requestError(w, "request body is not valid JSON")
		return false
	}
	return true
}
