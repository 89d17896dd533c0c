package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/desertthunder/checklists/internal/server"
	"github.com/desertthunder/checklists/internal/shared"
	"github.com/desertthunder/checklists/internal/validation"
)

// Machine-readable error codes.
const (
	CodeValidation         = "validation_error"
	CodeUnauthenticated    = "unauthenticated"
	CodeInvalidCredentials = "invalid_credentials"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeRateLimited        = "rate_limited"
	CodePayloadTooLarge    = "payload_too_large"
	CodeInternal           = "internal_error"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string                  `json:"error"`
	Code   string                  `json:"code"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// StatusFor maps an error to its HTTP status, code and client-facing message.
// resource names what a NotFound refers to ("Checklist", "Item").
func StatusFor(err error, resource string) (int, string, string) {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body too large"
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest, CodeValidation, "Invalid input"
	case errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password"
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrSessionExpired):
		return http.StatusUnauthorized, CodeUnauthenticated, "Unauthorized"
	case errors.Is(err, shared.ErrNotFound):
		if resource == "" {
			resource = "Resource"
		}
		return http.StatusNotFound, CodeNotFound, resource + " not found"
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict, CodeConflict, "Email already in use"
	default:
		return http.StatusInternalServerError, CodeInternal, "Internal server error"
	}
}

// writeError renders err. Internal errors are logged with their details and hidden from the client.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error, resource string) {
	status, code, msg := StatusFor(err, resource)
	if status == http.StatusInternalServerError {
		shared.LogError(a.logger.With("method", r.Method, "path", r.URL.Path), "request failed", err)
	}

	body := ErrorResponse{Error: msg, Code: code}
	var verr *validation.Error
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	writeJSON(w, status, body)
}

func (a *API) internalError(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Code: CodeInternal})
}

func (a *API) rateLimited(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/auth/login" {
		a.metrics.RecordLogin(server.LoginRateLimited)
	}
	writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "Too many requests", Code: CodeRateLimited})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

// readBody reads the (size-limited) request body.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	return io.ReadAll(r.Body)
}
