// Package errors defines the application errors the HTTP layer renders.
// Every AppError wraps one of the sentinels below so callers can test the
// category with Is.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/punchclock/punchclock-backend/pkg/i18n"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("resource conflict")
	ErrInternal     = errors.New("internal server error")
	ErrValidation   = errors.New("validation error")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// AppError is an error with an HTTP status, a stable code and an optional
// i18n key for the message.
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	MessageKey string            `json:"-"`
	Params     map[string]string `json:"-"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Localize translates the message for the locale in ctx. A resource param
// is translated through the "resources." namespace when a key exists.
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}
	l := i18n.LocalizerFromContext(ctx)
	params := e.Params
	if resource, ok := params["resource"]; ok && l.Has("resources."+resource) {
		params = map[string]string{"resource": l.T("resources." + resource)}
	}
	return l.T(e.MessageKey, params)
}

func newError(sentinel error, code string, status int, key, message string) *AppError {
	return &AppError{Err: sentinel, Code: code, StatusCode: status, MessageKey: key, Message: message}
}

// NotFound names the missing resource in snake_case, e.g. "time_entry".
func NotFound(resource string) *AppError {
	e := newError(ErrNotFound, "NOT_FOUND", http.StatusNotFound, "errors.not_found",
		fmt.Sprintf("%s not found", strings.ReplaceAll(resource, "_", " ")))
	e.Params = map[string]string{"resource": resource}
	return e
}

func Unauthorized(message string) *AppError {
	return newError(ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, "errors.unauthorized", message)
}

// Forbidden is returned when an authenticated caller may not act on a resource.
func Forbidden(message string) *AppError {
	return newError(ErrForbidden, "FORBIDDEN", http.StatusForbidden, "errors.forbidden", message)
}

// AdminRequired is the Forbidden variant for admin-only operations.
func AdminRequired() *AppError {
	return newError(ErrForbidden, "FORBIDDEN", http.StatusForbidden, "errors.admin_required", "admin access required")
}

func BadRequest(message string) *AppError {
	return newError(ErrBadRequest, "BAD_REQUEST", http.StatusBadRequest, "errors.bad_request", message)
}

func Conflict(message string) *AppError {
	return newError(ErrConflict, "CONFLICT", http.StatusConflict, "errors.conflict", message)
}

func Internal(message string) *AppError {
	return newError(ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError, "errors.internal", message)
}

// Validation carries per-field reasons keyed by JSON field name.
func Validation(details map[string]string) *AppError {
	e := newError(ErrValidation, "VALIDATION_ERROR", http.StatusBadRequest, "errors.validation_failed", "validation failed")
	e.Details = details
	return e
}

// InvalidField is a Validation error for a single field.
func InvalidField(field, reason string) *AppError {
	return Validation(map[string]string{field: reason})
}

func TokenExpired() *AppError {
	return newError(ErrTokenExpired, "TOKEN_EXPIRED", http.StatusUnauthorized, "errors.token_expired", "token has expired")
}

func TokenInvalid() *AppError {
	return newError(ErrTokenInvalid, "TOKEN_INVALID", http.StatusUnauthorized, "errors.token_invalid", "invalid token")
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound reports whether err carries ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
