package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/cardsmith/pkg/errors"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Details any         `json:"details,omitempty"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSurface, errors.ErrCodeInvalidSlug,
		errors.ErrCodeInvalidPath, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidTemplate:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeTemplateNotFound:
		return http.StatusNotFound
	case errors.ErrCodeVersionConflict:
		return http.StatusConflict
	case errors.ErrCodeNetwork:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError writes err as {code, message}. Uncoded errors become
// INTERNAL_ERROR without leaking their text.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	body := errorBody{Code: code, Message: errors.UserMessage(err)}
	if code == "" {
		body = errorBody{Code: errors.ErrCodeInternal, Message: "internal error"}
	}
	writeJSON(w, statusFor(body.Code), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errNotFoundRoute(r *http.Request) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path)
}
