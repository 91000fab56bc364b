package authcore

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error codes returned in API responses.
const (
	ErrCodeConflict     = "conflict"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeBadRequest   = "bad_request"
	ErrCodeInternal     = "internal_error"
)

// AuthError is a typed failure carried from the controllers out to the HTTP
// layer. Status is the HTTP status the error maps to; Code is a stable
// machine-readable identifier.
type AuthError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError creates a new authentication error
func NewAuthError(code string, status int, message string) *AuthError {
	return &AuthError{Code: code, Status: status, Message: message}
}

func ErrConflict(message string) *AuthError {
	return NewAuthError(ErrCodeConflict, http.StatusConflict, message)
}

func ErrNotFound(message string) *AuthError {
	return NewAuthError(ErrCodeNotFound, http.StatusNotFound, message)
}

func ErrUnauthorized(message string) *AuthError {
	return NewAuthError(ErrCodeUnauthorized, http.StatusUnauthorized, message)
}

func ErrForbidden(message string) *AuthError {
	return NewAuthError(ErrCodeForbidden, http.StatusForbidden, message)
}

func ErrBadRequest(message string) *AuthError {
	return NewAuthError(ErrCodeBadRequest, http.StatusBadRequest, message)
}

func ErrInternal(message string) *AuthError {
	return NewAuthError(ErrCodeInternal, http.StatusInternalServerError, message)
}

// AsAuthError maps any error to an AuthError. Errors that are already typed
// pass through; everything else (collaborator failures, store errors) becomes
// an internal error so that no internal detail leaks into responses.
func AsAuthError(err error) *AuthError {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return ErrInternal("Internal server error.")
}

// writeError renders an AuthError as a JSON response body.
func writeError(w http.ResponseWriter, err error) {
	authErr := AsAuthError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(authErr.Status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"code":    authErr.Code,
		"message": authErr.Message,
	})
}

// writeJSON renders a success payload.
func writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
