package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dropDatabas3/socialconnect/internal/configtree"
	"github.com/dropDatabas3/socialconnect/internal/graph"
	"github.com/dropDatabas3/socialconnect/internal/tokenstore"
)

// ErrNotConnected: no hay SignedToken para la plataforma en TokenStore.
var ErrNotConnected = errors.New("validation: platform not connected")

// Remote valida a través de POST /api/validate del servidor de auth. Se autentica con
// el SignedToken de TokenStore y manda el centinela tal cual; el servidor lo reemplaza
// por el access token del sujeto, que nunca sale del servidor.
type Remote struct {
	base   string
	client *graph.Client
	tokens tokenstore.Store
}

func NewRemote(client *graph.Client, serverURL string, tokens tokenstore.Store) *Remote {
	if client == nil {
		client = graph.New()
	}
	return &Remote{base: strings.TrimRight(serverURL, "/"), client: client, tokens: tokens}
}

// ValidateEnvironment pide el reporte al servidor.
func (r *Remote) ValidateEnvironment(ctx context.Context, p configtree.Platform, stage configtree.Stage, env configtree.PlatformEnvironmentConfig) (Report, error) {
	signed, err := r.tokens.Get(ctx, tokenstore.NormalizeKey(string(p)))
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			return Report{}, fmt.Errorf("%w: %s", ErrNotConnected, p)
		}
		return Report{}, err
	}

	res, err := r.client.Do(ctx, graph.Request{
		Method: http.MethodPost,
		URL:    r.base + "/api/validate",
		JSON: map[string]string{
			"platform":       string(p),
			"appId":          env.Credential("app_id"),
			"appSecret":      env.Credential("app_secret"),
			"userToken":      env.Token("user"),
			"pageId":         env.Credential("page_id"),
			"pageToken":      env.Token("page"),
			"requiredScopes": env.OAuth.Scopes,
		},
		Bearer:   signed,
		Provider: "socialconnect",
	})
	if err != nil {
		return Report{}, fmt.Errorf("validation: remote: %w", err)
	}
	var rep Report
	if err := json.Unmarshal([]byte(res.Raw), &rep); err != nil {
		return Report{}, fmt.Errorf("validation: remote: decode report: %w", err)
	}
	rep.Stage = stage
	return rep, nil
}
