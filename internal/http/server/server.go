// Package server arma las dependencias del AuthServer a partir de la configuración.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/socialconnect/internal/cache"
	"github.com/dropDatabas3/socialconnect/internal/config"
	"github.com/dropDatabas3/socialconnect/internal/events"
	"github.com/dropDatabas3/socialconnect/internal/graph"
	apictrl "github.com/dropDatabas3/socialconnect/internal/http/controllers/api"
	authctrl "github.com/dropDatabas3/socialconnect/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/socialconnect/internal/http/controllers/health"
	"github.com/dropDatabas3/socialconnect/internal/http/providers"
	"github.com/dropDatabas3/socialconnect/internal/http/router"
	"github.com/dropDatabas3/socialconnect/internal/http/services/handshake"
	"github.com/dropDatabas3/socialconnect/internal/identity"
	"github.com/dropDatabas3/socialconnect/internal/jwt"
	"github.com/dropDatabas3/socialconnect/internal/metrics"
	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
	"github.com/dropDatabas3/socialconnect/internal/rate"
	"github.com/dropDatabas3/socialconnect/internal/security/secretbox"
	"github.com/dropDatabas3/socialconnect/internal/validation"
)

// App es el servidor armado.
type App struct {
	Handler   http.Handler
	Providers *providers.Registry
	Signer    *jwt.Signer
	Bus       events.Bus

	closers []func() error
}

// Close libera las dependencias en orden inverso de creación.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options permiten inyectar dependencias (tests) en lugar de crearlas desde cfg.
type Options struct {
	Version   string
	Redis     *redis.Client
	Subjects  identity.Store
	Providers *providers.Registry
	Graph     *graph.Client
	Endpoints apictrl.Endpoints
	MetaGraph string
}

// Build arma el handler. Con Redis configurado, sesiones, bus y rate limit
// van a Redis; sin Redis todo queda en memoria. Con DATABASE_URL el registro de sujetos
// va a Postgres.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.L().With(logger.Component("server"))
	app := &App{}
	fail := func(err error) (*App, error) {
		_ = app.Close()
		return nil, err
	}

	signer, err := jwt.NewSigner(cfg.Auth.TokenSigningSecret, jwt.WithTTL(cfg.TokenTTL()))
	if err != nil {
		return nil, err
	}
	app.Signer = signer

	// Redis compartido (sesiones, bus, rate limit)
	rdb := opts.Redis
	if rdb == nil && cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("server: redis ping: %w", err)
		}
		app.closers = append(app.closers, rdb.Close)
	}

	var (
		sessions cache.Client
		limiter  rate.Limiter
	)
	if rdb != nil {
		sessions = cache.NewRedisFromClient(rdb, cfg.Redis.Prefix)
		bus := events.NewRedisBus(rdb, cfg.Redis.Channel)
		app.closers = append(app.closers, bus.Close)
		app.Bus = bus
		if cfg.Rate.Enabled {
			limiter = rate.NewRedisLimiter(rdb, cfg.Redis.Prefix+":rl:", cfg.Rate.MaxRequests, cfg.RateWindow())
		}
		log.Info("using redis backends", logger.String("addr", cfg.Redis.Addr))
	} else {
		sessions = cache.NewMemory(cfg.Redis.Prefix)
		app.Bus = events.NewHub()
		if cfg.Rate.Enabled {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.RateWindow())
		}
	}

	subjects := opts.Subjects
	health := map[string]healthctrl.Pinger{"sessions": sessions}
	if subjects == nil {
		if cfg.Database.URL != "" {
			pg, err := identity.NewPostgresStore(ctx, cfg.Database.URL)
			if err != nil {
				return fail(err)
			}
			app.closers = append(app.closers, func() error { pg.Close(); return nil })
			health["identity"] = pg
			subjects = pg
		} else {
			subjects = identity.NewMemoryStore()
		}
	}

	app.Providers = opts.Providers
	if app.Providers == nil {
		app.Providers = providers.FromConfig(*cfg)
	}

	var sealer handshake.Sealer
	if cfg.Auth.SessionSecret != "" {
		box, err := secretbox.New(cfg.Auth.SessionSecret)
		if err != nil {
			return fail(err)
		}
		sealer = box
	}

	hs, err := handshake.NewService(handshake.Deps{
		Providers:  app.Providers,
		Sessions:   sessions,
		Subjects:   subjects,
		Signer:     signer,
		Bus:        app.Bus,
		SessionTTL: cfg.SessionTTL(),
		Sealer:     sealer,
	})
	if err != nil {
		return fail(err)
	}

	gc := opts.Graph
	if gc == nil {
		gc = graph.New()
	}
	// El servidor no lee TokenStore: /api/validate resuelve el token por el sujeto.
	validator := validation.ForMeta(nil, validation.NewMetaIntrospector(gc, opts.MetaGraph))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg); err != nil {
		return fail(err)
	}

	app.Handler = router.New(router.Deps{
		Auth:        authctrl.NewController(hs),
		API:         apictrl.NewController(subjects, gc, opts.Endpoints),
		Validate:    apictrl.NewValidateController(validator, subjects),
		Health:      healthctrl.NewController(opts.Version, app.Providers.Names, health),
		Verifier:    signer,
		RateLimiter: limiter,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Metrics:     reg,
	})

	log.Info("server wired",
		logger.Any("providers", app.Providers.Names()),
		logger.Bool("rate_limit", limiter != nil))
	return app, nil
}
