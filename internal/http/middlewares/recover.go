package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/socialgrant/internal/http/errors"
	"github.com/dropDatabas3/socialgrant/internal/observability/logger"
)

// WithRecover captura panics y devuelve un server_error en lugar de crashear.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.From(r.Context()).Error("panic recovered",
					logger.Op("recover"),
					logger.Any("panic", rec),
				)
				errors.WriteError(w, errors.ErrServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
