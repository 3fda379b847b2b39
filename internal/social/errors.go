package social

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind clasifica los fallos del grant social.
type Kind string

const (
	KindMissingProviderType  Kind = "missing_provider_type"
	KindMissingCredential    Kind = "missing_credential"
	KindInvalidCredential    Kind = "invalid_credential"
	KindValidatorUnavailable Kind = "validator_unavailable"
	KindInvalidGrant         Kind = "invalid_grant"
)

// Error es el error clasificado que devuelven el adapter, los validators y el dispatcher.
// Details lleva diagnóstico del provider (code, subcode, error_description, ...);
// nunca el token crudo, el authorization code ni el access token del provider.
type Error struct {
	Kind     Kind
	Provider string
	Message  string
	Details  map[string]string
	Err      error
}

// Error implementa la interfaz error
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Provider != "" {
		b.WriteString(" [")
		b.WriteString(e.Provider)
		b.WriteString("]")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(e.Details[k])
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap permite acceder a la causa
func (e *Error) Unwrap() error { return e.Err }

// Is compara por Kind, así errors.Is(err, ErrInvalidCredential) funciona con cualquier
// instancia derivada de los errores base.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithProvider devuelve una COPIA con el provider seteado.
func (e *Error) WithProvider(provider string) *Error {
	n := e.clone()
	n.Provider = provider
	return n
}

// WithMessage devuelve una COPIA con otro mensaje.
func (e *Error) WithMessage(format string, args ...any) *Error {
	n := e.clone()
	n.Message = fmt.Sprintf(format, args...)
	return n
}

// WithDetail devuelve una COPIA con un detalle adicional.
func (e *Error) WithDetail(key, value string) *Error {
	n := e.clone()
	n.Details[key] = value
	return n
}

// WithCause devuelve una COPIA envolviendo err.
func (e *Error) WithCause(err error) *Error {
	n := e.clone()
	n.Err = err
	return n
}

func (e *Error) clone() *Error {
	n := *e
	n.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		n.Details[k] = v
	}
	return &n
}

// Errores base. Usar siempre las variantes With* para no mutar estas variables.
var (
	ErrMissingProviderType = &Error{
		Kind:    KindMissingProviderType,
		Message: "parameter 'type' is required",
	}
	ErrMissingCredential = &Error{
		Kind:    KindMissingCredential,
		Message: "parameter 'token' is required",
	}
	ErrInvalidCredential = &Error{
		Kind:    KindInvalidCredential,
		Message: "authentication rejected by provider",
	}
	ErrValidatorUnavailable = &Error{
		Kind:    KindValidatorUnavailable,
		Message: "identity provider unavailable",
	}
	ErrInvalidGrant = &Error{
		Kind:    KindInvalidGrant,
		Message: "could not validate token",
	}
)

// Rejected construye un InvalidCredential para provider.
func Rejected(provider, format string, args ...any) *Error {
	return ErrInvalidCredential.WithProvider(provider).WithMessage(format, args...)
}

// Unavailable construye un ValidatorUnavailable para provider envolviendo cause.
func Unavailable(provider string, cause error, format string, args ...any) *Error {
	return ErrValidatorUnavailable.WithProvider(provider).WithMessage(format, args...).WithCause(cause)
}

// InvalidGrant construye el error del dispatcher para providerType.
func InvalidGrant(providerType string) *Error {
	return ErrInvalidGrant.WithProvider(providerType).WithMessage("could not validate token for type: %s", providerType)
}

// KindOf devuelve el Kind del primer *Error de la cadena, o "" si no hay ninguno.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Retryable indica si el fallo es de infraestructura (reintentar puede tener sentido).
func Retryable(err error) bool {
	return errors.Is(err, ErrValidatorUnavailable)
}

// IsRequestError indica un request mal formado (falló antes de cualquier llamada de red).
func IsRequestError(err error) bool {
	return errors.Is(err, ErrMissingProviderType) || errors.Is(err, ErrMissingCredential)
}
