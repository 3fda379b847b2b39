package social

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/socialgrant/internal/observability/logger"
)

// Outcomes usados en logs, métricas y audit.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeRejected      = "rejected"
	OutcomeUnavailable   = "unavailable"
	OutcomeBadRequest    = "bad_request"
	OutcomeError         = "error"
)

// Outcome clasifica el resultado de una validación o de un grant.
func Outcome(p *Principal, err error) string {
	switch {
	case err == nil && p.Authenticated():
		return OutcomeAuthenticated
	case err == nil:
		return OutcomeRejected
	case IsRequestError(err):
		return OutcomeBadRequest
	case errors.Is(err, ErrValidatorUnavailable):
		return OutcomeUnavailable
	case errors.Is(err, ErrInvalidCredential), errors.Is(err, ErrInvalidGrant):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

// Observer recibe las mediciones del dispatcher y del granter (ver internal/metrics).
type Observer interface {
	ObserveValidation(provider, outcome string, elapsed time.Duration)
	ObserveGrant(providerType, outcome string)
}

type noopObserver struct{}

func (noopObserver) ObserveValidation(string, string, time.Duration) {}
func (noopObserver) ObserveGrant(string, string)                     {}

// Authenticator es lo que el granter necesita del dispatcher.
type Authenticator interface {
	Authenticate(ctx context.Context, providerType, rawToken string) (*Principal, error)
}

// Dispatcher selecciona y ejecuta los validators configurados.
//
// Política:
//   - Se recorren los validators en orden de configuración; se invoca ValidateLogin en
//     cada uno aplicable hasta el primer principal autenticado.
//   - Un fallo (rechazo o error duro) de un validator que no es el último aplicable no
//     corta el loop.
//   - Si ninguno autentica decide el último intentado: un rechazo se envuelve en
//     InvalidGrant (conservando la causa); cualquier otro error se propaga tal cual.
//   - Sin validators aplicables: InvalidGrant y no se llama a ninguno.
type Dispatcher struct {
	validators []Validator
	observer   Observer
}

// DispatcherOption configura el Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithObserver registra un Observer (métricas).
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// NewDispatcher crea el dispatcher con la secuencia ordenada de validators.
// La secuencia se copia: cambios posteriores al slice no afectan al dispatcher.
func NewDispatcher(validators []Validator, opts ...DispatcherOption) *Dispatcher {
	vs := make([]Validator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			vs = append(vs, v)
		}
	}
	d := &Dispatcher{validators: vs, observer: noopObserver{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Types devuelve los tipos registrados en orden (con duplicados si los hay).
func (d *Dispatcher) Types() []string {
	out := make([]string, 0, len(d.validators))
	for _, v := range d.validators {
		out = append(out, v.Type())
	}
	return out
}

// Authenticate valida rawToken con los validators aplicables a providerType.
func (d *Dispatcher) Authenticate(ctx context.Context, providerType, rawToken string) (*Principal, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.dispatcher"),
		logger.Provider(providerType),
	)

	var (
		tried   int
		lastErr error
	)
	for _, v := range d.validators {
		if !v.IsApplicable(providerType) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, Unavailable(providerType, err, "request cancelled before validation")
		}
		tried++

		start := time.Now()
		p, err := v.ValidateLogin(ctx, rawToken)
		outcome := Outcome(p, err)
		d.observer.ObserveValidation(v.Type(), outcome, time.Since(start))

		if err == nil && p.Authenticated() {
			log.Debug("token validated", logger.Attempt(tried), logger.Subject(p.SubjectID()))
			return p, nil
		}
		if err == nil {
			err = Rejected(v.Type(), "validator returned an unauthenticated principal")
		}
		log.Info("validator did not authenticate",
			logger.Attempt(tried),
			logger.Outcome(outcome),
			logger.Err(err),
		)
		lastErr = err
	}

	if tried == 0 {
		log.Info("no validator applicable")
		return nil, InvalidGrant(providerType)
	}
	if errors.Is(lastErr, ErrInvalidCredential) {
		return nil, InvalidGrant(providerType).WithCause(lastErr)
	}
	return nil, lastErr
}
