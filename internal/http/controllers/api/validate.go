package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dropDatabas3/socialconnect/internal/configtree"
	httperrors "github.com/dropDatabas3/socialconnect/internal/http/errors"
	"github.com/dropDatabas3/socialconnect/internal/http/helpers"
	"github.com/dropDatabas3/socialconnect/internal/http/middlewares"
	"github.com/dropDatabas3/socialconnect/internal/identity"
	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
	"github.com/dropDatabas3/socialconnect/internal/tokenstore"
	"github.com/dropDatabas3/socialconnect/internal/validation"
)

// ValidateController expone el ValidationService. Un userToken vacío o centinela se
// reemplaza por el access token del sujeto autenticado si es de la misma plataforma.
type ValidateController struct {
	service  *validation.Service
	subjects identity.Store
}

func NewValidateController(s *validation.Service, subjects identity.Store) *ValidateController {
	return &ValidateController{service: s, subjects: subjects}
}

type validateRequest struct {
	Platform       string `json:"platform"`
	AppID          string `json:"appId"`
	AppSecret      string `json:"appSecret"`
	UserToken      string `json:"userToken"`
	PageID         string `json:"pageId"`
	PageToken      string `json:"pageToken"`
	RequiredScopes string `json:"requiredScopes"`
}

// Validate handles POST /api/validate
func (c *ValidateController) Validate(w http.ResponseWriter, r *http.Request) {
	var in validateRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	p, err := configtree.ParsePlatform(in.Platform)
	if err != nil {
		httperrors.WriteErrorCtx(r.Context(), w, httperrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	if bad := validation.InvalidScopes(in.RequiredScopes); len(bad) > 0 {
		httperrors.WriteErrorCtx(r.Context(), w, httperrors.ErrBadRequest.WithDetail("invalid scope name: "+bad[0]))
		return
	}

	if in.UserToken == "" || in.UserToken == tokenstore.Sentinel {
		in.UserToken = c.subjectToken(r.Context(), p)
	}

	env := configtree.PlatformEnvironmentConfig{
		Credentials: map[string]string{"app_id": in.AppID, "app_secret": in.AppSecret, "page_id": in.PageID},
		Tokens:      map[string]string{"user": in.UserToken, "page": in.PageToken},
		OAuth:       configtree.OAuthConfig{Scopes: in.RequiredScopes},
	}
	helpers.WriteJSON(w, http.StatusOK, c.service.ValidateEnvironment(r.Context(), p, "", env))
}

// subjectToken devuelve "" si no hay sujeto, es de otro proveedor o falla el store.
func (c *ValidateController) subjectToken(ctx context.Context, p configtree.Platform) string {
	claims, ok := middlewares.GetSubject(ctx)
	if !ok || c.subjects == nil {
		return ""
	}
	sub, err := c.subjects.Get(ctx, claims.ID)
	if err != nil {
		if !errors.Is(err, identity.ErrNotFound) {
			logger.From(ctx).Warn("subject lookup failed", logger.Err(err))
		}
		return ""
	}
	if sub.Provider != tokenstore.NormalizeKey(string(p)) {
		return ""
	}
	return sub.AccessToken
}
