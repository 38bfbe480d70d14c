// Package httputil centralizes JSON encoding and domain error translation
// for HTTP handlers, keeping error envelopes consistent across endpoints.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/sentinel"
)

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Validatable lets request types validate and normalize themselves
// after decoding.
type Validatable interface {
	Validate() error
}

// Decode parses a JSON request body into T and runs its Validate method
// when present. On failure it writes the error envelope and returns false.
func Decode[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	body := new(T)
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed request body"))
		return nil, false
	}
	if v, ok := any(body).(Validatable); ok {
		if err := v.Validate(); err != nil {
			WriteError(w, err)
			return nil, false
		}
	}
	return body, true
}

// WriteError translates an error into an HTTP status and JSON envelope.
// Internal details are never echoed to the client.
func WriteError(w http.ResponseWriter, err error) {
	status, code := classify(err)

	body := map[string]string{"error": string(code)}
	if status < http.StatusInternalServerError {
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			body["error_description"] = domainErr.Message
		}
	}
	WriteJSON(w, status, body)
}

func classify(err error) (int, dErrors.Code) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound), dErrors.HasCode(err, dErrors.CodeNotFound):
		return http.StatusNotFound, dErrors.CodeNotFound
	case errors.Is(err, sentinel.ErrConflict), dErrors.HasCode(err, dErrors.CodeConflict):
		return http.StatusConflict, dErrors.CodeConflict
	case errors.Is(err, sentinel.ErrUnavailable), dErrors.HasCode(err, dErrors.CodeUnavailable):
		return http.StatusServiceUnavailable, dErrors.CodeUnavailable
	case dErrors.HasCode(err, dErrors.CodeUnauthorized):
		return http.StatusUnauthorized, dErrors.CodeUnauthorized
	case dErrors.HasCode(err, dErrors.CodeBadRequest):
		return http.StatusBadRequest, dErrors.CodeBadRequest
	case dErrors.HasCode(err, dErrors.CodeValidation):
		return http.StatusBadRequest, dErrors.CodeValidation
	case dErrors.HasCode(err, dErrors.CodeInvalidInput):
		return http.StatusBadRequest, dErrors.CodeInvalidInput
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return http.StatusUnprocessableEntity, dErrors.CodeInvariantViolation
	default:
		return http.StatusInternalServerError, dErrors.CodeInternal
	}
}
