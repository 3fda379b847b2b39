// Package errors define los errores HTTP del servicio en el formato de error de OAuth 2.0
// (RFC 6749 §5.2) y el mapeo desde los errores clasificados del grant social.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/socialgrant/internal/social"
)

// AppError es un error con código OAuth, descripción para el cliente y status HTTP.
type AppError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	HTTPStatus  int    `json:"-"`
	Err         error  `json:"-"` // causa, solo para logs
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Description)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error { return e.Err }

// New crea un nuevo AppError
func New(status int, code, description string) *AppError {
	return &AppError{Code: code, Description: description, HTTPStatus: status}
}

// WithDescription devuelve una COPIA con otra descripción.
func (e *AppError) WithDescription(description string) *AppError {
	n := *e
	n.Description = description
	return &n
}

// WithCause devuelve una COPIA envolviendo err.
func (e *AppError) WithCause(err error) *AppError {
	n := *e
	n.Err = err
	return &n
}

var (
	ErrInvalidRequest = &AppError{
		Code:        "invalid_request",
		Description: "The request is missing a required parameter or is malformed.",
		HTTPStatus:  http.StatusBadRequest,
	}

	ErrUnsupportedGrantType = &AppError{
		Code:        "unsupported_grant_type",
		Description: "The authorization grant type is not supported.",
		HTTPStatus:  http.StatusBadRequest,
	}

	ErrInvalidGrant = &AppError{
		Code:        "invalid_grant",
		Description: "The provided credential is invalid.",
		HTTPStatus:  http.StatusBadRequest,
	}

	ErrTemporarilyUnavailable = &AppError{
		Code:        "temporarily_unavailable",
		Description: "The identity provider could not be reached. Try again later.",
		HTTPStatus:  http.StatusServiceUnavailable,
	}

	ErrServerError = &AppError{
		Code:        "server_error",
		Description: "Unexpected error.",
		HTTPStatus:  http.StatusInternalServerError,
	}

	ErrRateLimitExceeded = &AppError{
		Code:        "rate_limited",
		Description: "Too many requests. Slow down.",
		HTTPStatus:  http.StatusTooManyRequests,
	}

	ErrMethodNotAllowed = &AppError{
		Code:        "method_not_allowed",
		Description: "Method not allowed for this resource.",
		HTTPStatus:  http.StatusMethodNotAllowed,
	}

	ErrNotFound = &AppError{
		Code:        "not_found",
		Description: "Resource not found.",
		HTTPStatus:  http.StatusNotFound,
	}
)

// FromError convierte cualquier error en un AppError.
//
// Los *social.Error se mapean por Kind; la descripción es el mensaje de primer nivel
// (nunca los details del provider ni la causa). Lo que no se reconoce es server_error.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var se *social.Error
	if !errors.As(err, &se) {
		return ErrServerError.WithCause(err)
	}

	var base *AppError
	switch se.Kind {
	case social.KindMissingProviderType, social.KindMissingCredential:
		base = ErrInvalidRequest
	case social.KindInvalidCredential, social.KindInvalidGrant:
		base = ErrInvalidGrant
	case social.KindValidatorUnavailable:
		base = ErrTemporarilyUnavailable
	default:
		return ErrServerError.WithCause(err)
	}
	out := base.WithCause(err)
	if se.Message != "" {
		out.Description = se.Message
	}
	return out
}
