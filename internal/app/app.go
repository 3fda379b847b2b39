// Package app arma el servicio a partir de la configuración: cache, validators,
// dispatcher, audit, issuer, granter y el router HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/socialgrant/internal/audit"
	"github.com/dropDatabas3/socialgrant/internal/cache"
	"github.com/dropDatabas3/socialgrant/internal/config"
	httpserver "github.com/dropDatabas3/socialgrant/internal/http"
	"github.com/dropDatabas3/socialgrant/internal/http/controllers"
	mw "github.com/dropDatabas3/socialgrant/internal/http/middlewares"
	"github.com/dropDatabas3/socialgrant/internal/http/router"
	"github.com/dropDatabas3/socialgrant/internal/jwt"
	"github.com/dropDatabas3/socialgrant/internal/metrics"
	"github.com/dropDatabas3/socialgrant/internal/observability/logger"
	"github.com/dropDatabas3/socialgrant/internal/providers"
	"github.com/dropDatabas3/socialgrant/internal/rate"
	"github.com/dropDatabas3/socialgrant/internal/security/secretbox"
	"github.com/dropDatabas3/socialgrant/internal/social"
)

// Options son dependencias opcionales (tests).
type Options struct {
	// Registry nil => prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// App es el servicio cableado.
type App struct {
	Config     *config.Config
	Handler    http.Handler
	Dispatcher *social.Dispatcher
	Keys       *jwt.KeySet
	Providers  []string

	closers []func() error
}

// Core son las piezas compartidas por el servidor y por el CLI de validación.
type Core struct {
	Cache      cache.Cache
	Validators []social.Validator
}

// BuildCore construye el cache y los validators configurados.
func BuildCore(cfg *config.Config) (*Core, error) {
	c, err := cache.New(cache.Config{
		Driver:     cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: cfg.Cache.Memory.DefaultTTL,
	})
	if err != nil {
		return nil, err
	}
	vs, err := providers.BuildValidators(cfg.Social, providers.Deps{Cache: c})
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Core{Cache: c, Validators: vs}, nil
}

// New construye la aplicación completa. Llamar Close al terminar.
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	log := logger.Named("app")
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	core, err := BuildCore(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, core.Cache.Close)
	a.Providers = providers.Enabled(core.Validators)
	if len(a.Providers) == 0 {
		log.Warn("no social provider configured; every grant will fail")
	} else {
		log.Info("social providers enabled", logger.Any("providers", a.Providers))
	}

	// Audit
	var (
		sinks     audit.Multi
		auditPool *pgxpool.Pool
	)
	if cfg.Audit.Log {
		sinks = append(sinks, audit.NewLogSink(nil))
	}
	if dsn := cfg.Audit.Postgres.DSN; dsn != "" {
		auditPool, err = audit.OpenPostgres(ctx, dsn, cfg.Audit.Postgres.MaxConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { auditPool.Close(); return nil })

		pg := audit.NewPostgresSink(auditPool)
		if cfg.Audit.Postgres.Migrate {
			if err := pg.Migrate(ctx); err != nil {
				return nil, err
			}
		}
		sinks = append(sinks, pg)
	}

	// Metrics
	mcfg := metrics.Config{Registry: opts.Registry}
	if auditPool != nil {
		mcfg.AuditPool = func() *pgxpool.Pool { return auditPool }
	}
	m, err := metrics.New(mcfg)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	// Issuer
	master, err := secretbox.KeyFromEnv()
	if err != nil && !errors.Is(err, secretbox.ErrNoKey) {
		return nil, err
	}
	ks, ephemeral, err := jwt.LoadKeySet(cfg.JWT.SigningSeed, cfg.JWT.KeyFile, master)
	if err != nil {
		return nil, err
	}
	if ephemeral {
		log.Warn("using an ephemeral signing key; tokens will not survive a restart")
	}
	a.Keys = ks

	a.Dispatcher = social.NewDispatcher(core.Validators, social.WithObserver(m))
	granter := social.NewGranter(social.GranterDeps{
		Authenticator: a.Dispatcher,
		Issuer:        jwt.NewIssuer(cfg.JWT.Issuer, ks, cfg.JWT.AccessTTL),
		Audit:         sinks,
		Observer:      m,
	})

	proxies, err := mw.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("server.trusted_proxies: %w", err)
	}

	a.Handler = router.New(router.Deps{
		Token:          controllers.NewTokenController(granter),
		JWKS:           controllers.NewJWKSController(ks),
		Health:         controllers.NewHealthController(a.Providers, ks.KID),
		Metrics:        m,
		TokenLimiter:   tokenLimiter(cfg, core.Cache),
		TrustedProxies: proxies,
	})
	return a, nil
}

// tokenLimiter usa Redis si el cache es Redis (límite compartido entre réplicas).
func tokenLimiter(cfg *config.Config, c cache.Cache) rate.Limiter {
	if !cfg.Rate.Enabled {
		return nil
	}
	if r, ok := c.(*cache.Redis); ok {
		return rate.NewRedisLimiter(r.Client(), cfg.Cache.Redis.Prefix+":rl:", cfg.Rate.Token.Limit, cfg.Rate.Token.Window)
	}
	return rate.NewMemoryLimiter(cfg.Rate.Token.Limit, cfg.Rate.Token.Window)
}

// Run sirve HTTP hasta que ctx se cancela.
func (a *App) Run(ctx context.Context) error {
	s := a.Config.Server
	return httpserver.NewServer(httpserver.ServerConfig{
		Addr:            s.Addr,
		ReadTimeout:     s.ReadTimeout,
		WriteTimeout:    s.WriteTimeout,
		ShutdownTimeout: s.ShutdownTimeout,
	}, a.Handler).Run(ctx)
}

// Close libera los recursos en orden inverso.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
