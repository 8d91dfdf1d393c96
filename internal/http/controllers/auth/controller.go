// Package auth expone las rutas del AuthServer: inicio, callback y fallo.
package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/socialconnect/internal/events"
	httperrors "github.com/dropDatabas3/socialconnect/internal/http/errors"
	svc "github.com/dropDatabas3/socialconnect/internal/http/services/handshake"
	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
)

// Controller maneja /auth/*.
type Controller struct {
	service svc.Service
}

func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

// Start handles GET /auth/{provider}
func (c *Controller) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.Start"), logger.Provider(provider))

	authURL, err := c.service.Start(ctx, provider)
	if err != nil {
		if errors.Is(err, svc.ErrUnknownProvider) {
			log.Debug("provider not enabled")
			httperrors.WriteErrorCtx(ctx, w, httperrors.ErrProviderDisabled.WithDetail(provider))
			return
		}
		httperrors.WriteErrorCtx(ctx, w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles GET /auth/{provider}/callback
func (c *Controller) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.Callback"), logger.Provider(provider))

	out, err := c.service.Callback(ctx, provider, r.URL.Query())
	if err != nil {
		log.Warn("authentication failed", logger.Platform(out.Platform), logger.Err(err))
		c.render(w, r, http.StatusUnauthorized, events.Failure(out.Platform))
		return
	}
	log.Info("token issued", logger.Platform(out.Platform), logger.SubjectID(out.Subject.ID))
	c.render(w, r, http.StatusOK, events.Success(out.Platform, out.Token))
}

// Failed handles GET /auth/failed/{provider}
func (c *Controller) Failed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out := c.service.Fail(ctx, chi.URLParam(r, "provider"))
	c.render(w, r, http.StatusUnauthorized, events.Failure(out.Platform))
}

func (c *Controller) render(w http.ResponseWriter, r *http.Request, status int, m events.Message) {
	if err := writePage(w, status, m); err != nil {
		logger.From(r.Context()).Error("completion page render failed", logger.Err(err))
	}
}
