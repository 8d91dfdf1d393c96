// Package router arma el árbol de rutas (chi) del servidor.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apictrl "github.com/dropDatabas3/socialconnect/internal/http/controllers/api"
	authctrl "github.com/dropDatabas3/socialconnect/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/socialconnect/internal/http/controllers/health"
	httperrors "github.com/dropDatabas3/socialconnect/internal/http/errors"
	mw "github.com/dropDatabas3/socialconnect/internal/http/middlewares"
	"github.com/dropDatabas3/socialconnect/internal/rate"
)

// Deps contiene todo lo necesario para registrar rutas.
type Deps struct {
	Auth     *authctrl.Controller
	API      *apictrl.Controller
	Validate *apictrl.ValidateController
	Health   *healthctrl.Controller

	Verifier    mw.TokenVerifier
	RateLimiter rate.Limiter // opcional, solo /auth/*
	CORSOrigins []string
	Metrics     prometheus.Gatherer // nil => sin /metrics
}

// New devuelve el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteErrorCtx(r.Context(), w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteErrorCtx(r.Context(), w, httperrors.ErrMethodNotAllowed)
	})

	if d.Health != nil {
		r.Get("/healthz", d.Health.Healthz)
		r.Get("/readyz", d.Health.Readyz)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}

	if d.Auth != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Use(mw.WithNoStore(), mw.WithRateLimit(d.RateLimiter, nil))
			r.Get("/failed/{provider}", d.Auth.Failed)
			r.Get("/{provider}", d.Auth.Start)
			r.Get("/{provider}/callback", d.Auth.Callback)
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.WithNoStore(), mw.RequireToken(d.Verifier))

		if d.API != nil {
			r.With(mw.RequireProvider("meta")).Post("/meta/page/video", d.API.PageVideo)
			r.With(mw.RequireProvider("meta")).Post("/meta/group/video", d.API.GroupVideo)
			r.With(mw.RequireProvider("x")).Post("/twitter/tweet", d.API.Tweet)
			r.With(mw.RequireProvider("linkedin")).Post("/linkedin/profile/post", d.API.LinkedInPost)
			r.With(mw.RequireProvider("tiktok")).Get("/tiktok/user", d.API.TikTokUser)
		}
		if d.Validate != nil {
			r.Post("/validate", d.Validate.Validate)
		}
	})

	return mw.Chain(r,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(d.CORSOrigins),
	)
}
