// Package router arma el router chi del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/socialgrant/internal/http/controllers"
	"github.com/dropDatabas3/socialgrant/internal/http/errors"
	mw "github.com/dropDatabas3/socialgrant/internal/http/middlewares"
	"github.com/dropDatabas3/socialgrant/internal/metrics"
	"github.com/dropDatabas3/socialgrant/internal/rate"
)

// Deps agrupa las dependencias del router. Metrics, TokenLimiter y TrustedProxies son opcionales.
type Deps struct {
	Token  *controllers.TokenController
	JWKS   *controllers.JWKSController
	Health *controllers.HealthController

	Metrics      *metrics.Metrics
	TokenLimiter rate.Limiter

	// TrustedProxies habilita X-Forwarded-For para esos peers. Vacío: nunca se honra.
	TrustedProxies mw.TrustedProxies
}

// New registra las rutas:
//
//	POST /oauth2/token            grant social (rate limit por IP, no-store)
//	GET  /.well-known/jwks.json   claves públicas de firma
//	GET  /healthz                 providers habilitados
//	GET  /metrics                 prometheus
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRecover(), mw.WithRequestID(), mw.WithClientIP(deps.TrustedProxies), mw.WithLogging())
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		errors.WriteError(w, errors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		errors.WriteError(w, errors.ErrMethodNotAllowed)
	})

	r.With(
		mw.WithNoStore(),
		mw.WithRateLimit(mw.RateLimitConfig{Limiter: deps.TokenLimiter}),
	).Post("/oauth2/token", deps.Token.Token)

	r.With(mw.WithCacheControl("public, max-age=300")).
		Get("/.well-known/jwks.json", deps.JWKS.JWKS)

	r.Get("/healthz", deps.Health.Healthz)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	return r
}
