// Package api contiene las rutas protegidas por el token gate. Cada ruta exige que el
// sujeto venga del proveedor de la ruta y llama a la API del proveedor con el access
// token guardado en el registro del sujeto.
package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dropDatabas3/socialconnect/internal/graph"
	httperrors "github.com/dropDatabas3/socialconnect/internal/http/errors"
	"github.com/dropDatabas3/socialconnect/internal/http/middlewares"
	"github.com/dropDatabas3/socialconnect/internal/identity"
	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
)

// Endpoints son las bases de cada API de proveedor.
type Endpoints struct {
	MetaGraph string
	Twitter   string
	LinkedIn  string
	TikTok    string
}

// DefaultEndpoints apunta a las APIs públicas.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		MetaGraph: "https://graph.facebook.com/v19.0",
		Twitter:   "https://api.twitter.com/2",
		LinkedIn:  "https://api.linkedin.com/v2",
		TikTok:    "https://open.tiktokapis.com/v2",
	}
}

// Controller maneja /api/*.
type Controller struct {
	subjects  identity.Store
	graph     *graph.Client
	endpoints Endpoints
}

func NewController(subjects identity.Store, client *graph.Client, ep Endpoints) *Controller {
	def := DefaultEndpoints()
	if ep.MetaGraph == "" {
		ep.MetaGraph = def.MetaGraph
	}
	if ep.Twitter == "" {
		ep.Twitter = def.Twitter
	}
	if ep.LinkedIn == "" {
		ep.LinkedIn = def.LinkedIn
	}
	if ep.TikTok == "" {
		ep.TikTok = def.TikTok
	}
	if client == nil {
		client = graph.New()
	}
	return &Controller{subjects: subjects, graph: client, endpoints: ep}
}

// subject resuelve el registro del sujeto autenticado. Escribe el error si falla.
func (c *Controller) subject(w http.ResponseWriter, r *http.Request) (identity.Subject, bool) {
	ctx := r.Context()
	claims, ok := middlewares.GetSubject(ctx)
	if !ok {
		httperrors.WriteErrorCtx(ctx, w, httperrors.ErrUnauthenticated)
		return identity.Subject{}, false
	}
	sub, err := c.subjects.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			httperrors.WriteErrorCtx(ctx, w, httperrors.ErrForbidden.WithDetail("unknown subject"))
			return identity.Subject{}, false
		}
		httperrors.WriteErrorCtx(ctx, w, httperrors.ErrInternalServerError.WithCause(err))
		return identity.Subject{}, false
	}
	if sub.AccessToken == "" {
		httperrors.WriteErrorCtx(ctx, w, httperrors.ErrForbidden.WithDetail("no provider token on record"))
		return identity.Subject{}, false
	}
	return sub, true
}

// call ejecuta la llamada y traduce errores del proveedor a 502.
func (c *Controller) call(ctx context.Context, w http.ResponseWriter, req graph.Request) (gjson.Result, bool) {
	res, err := c.graph.Do(ctx, req)
	if err != nil {
		logger.From(ctx).Warn("provider call failed", logger.Provider(req.Provider), logger.Err(err))
		var apiErr *graph.APIError
		if errors.As(err, &apiErr) {
			httperrors.WriteErrorCtx(ctx, w, httperrors.ErrUpstream.WithDetail(apiErr.Message))
			return gjson.Result{}, false
		}
		if ctx.Err() != nil {
			httperrors.WriteErrorCtx(ctx, w, httperrors.ErrServiceUnavailable.WithCause(err))
			return gjson.Result{}, false
		}
		httperrors.WriteErrorCtx(ctx, w, httperrors.ErrUpstream.WithCause(err))
		return gjson.Result{}, false
	}
	return res, true
}

func required(w http.ResponseWriter, r *http.Request, fields map[string]string) bool {
	var missing []string
	for k, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		httperrors.WriteErrorCtx(r.Context(), w, httperrors.ErrBadRequest.WithDetail("missing fields: "+strings.Join(missing, ", ")))
		return false
	}
	return true
}
