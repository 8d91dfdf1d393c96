package validation

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/socialconnect/internal/graph"
)

// DefaultGraphURL es la base del Graph API de Meta.
const DefaultGraphURL = "https://graph.facebook.com/v19.0"

// MetaIntrospector usa debug_token y /me/permissions del Graph API.
type MetaIntrospector struct {
	base   string
	client *graph.Client
}

func NewMetaIntrospector(client *graph.Client, baseURL string) *MetaIntrospector {
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	if client == nil {
		client = graph.New()
	}
	return &MetaIntrospector{base: strings.TrimRight(baseURL, "/"), client: client}
}

// DebugToken usa el app access token "{app_id}|{app_secret}".
func (m *MetaIntrospector) DebugToken(ctx context.Context, app AppCredentials, token string) (TokenInfo, error) {
	res, err := m.client.Do(ctx, graph.Request{
		Method: http.MethodGet,
		URL:    m.base + "/debug_token",
		Query: url.Values{
			"input_token":  {token},
			"access_token": {app.AppID + "|" + app.AppSecret},
		},
		Provider: "facebook",
	})
	if err != nil {
		return TokenInfo{}, err
	}
	data := res.Get("data")
	info := TokenInfo{
		Valid:     data.Get("is_valid").Bool(),
		ProfileID: data.Get("profile_id").String(),
		Reason:    data.Get("error.message").String(),
	}
	for _, s := range data.Get("scopes").Array() {
		info.Scopes = append(info.Scopes, s.String())
	}
	if exp := data.Get("expires_at").Int(); exp > 0 {
		info.ExpiresAt = time.Unix(exp, 0).UTC()
	}
	return info, nil
}

// GrantedScopes devuelve los permisos con status "granted".
func (m *MetaIntrospector) GrantedScopes(ctx context.Context, token string) ([]string, error) {
	res, err := m.client.Do(ctx, graph.Request{
		Method:   http.MethodGet,
		URL:      m.base + "/me/permissions",
		Query:    url.Values{"access_token": {token}},
		Provider: "facebook",
	})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range res.Get("data").Array() {
		if p.Get("status").String() == "granted" {
			out = append(out, p.Get("permission").String())
		}
	}
	return out, nil
}
