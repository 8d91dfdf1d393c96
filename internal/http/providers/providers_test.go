package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dropDatabas3/socialconnect/internal/config"
)

// fakeProvider simula token endpoint + profile endpoint.
type fakeProvider struct {
	srv      *httptest.Server
	profile  string
	mu       sync.Mutex
	lastForm url.Values
	lastAuth string
	bearer   string
}

func newFakeProvider(t *testing.T, profile string) *fakeProvider {
	t.Helper()
	f := &fakeProvider{profile: profile}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.lastForm = r.PostForm
		f.lastAuth = r.Header.Get("Authorization")
		f.mu.Unlock()
		if r.PostForm.Get("code") == "bad" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "provider-at",
			"refresh_token": "provider-rt",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.bearer = r.Header.Get("Authorization")
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.profile))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeProvider) opts(style oauth2.AuthStyle) []Option {
	return []Option{
		WithEndpoint(oauth2.Endpoint{AuthURL: f.srv.URL + "/authorize", TokenURL: f.srv.URL + "/token", AuthStyle: style}),
		WithProfileURL(f.srv.URL + "/me"),
		WithHTTPClient(f.srv.Client()),
	}
}

func creds(name string) Credentials {
	return Credentials{
		ClientID:     name + "-id",
		ClientSecret: name + "-secret",
		RedirectURL:  "http://localhost:8080/auth/" + name + "/callback",
		Scopes:       []string{"a", "b"},
	}
}

func TestFacebook_InitiateAndCallback(t *testing.T) {
	f := newFakeProvider(t, `{"id":"fb-1","name":"Ana"}`)
	p := NewFacebook(creds("facebook"), f.opts(oauth2.AuthStyleInParams)...)

	require.Equal(t, "facebook", p.Name())
	require.Equal(t, "meta", p.Key())
	require.False(t, p.UsesPKCE())

	u, err := url.Parse(p.Initiate("st-1", ""))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "facebook-id", q.Get("client_id"))
	assert.Equal(t, "st-1", q.Get("state"))
	assert.Equal(t, "a b", q.Get("scope"))
	assert.Equal(t, "http://localhost:8080/auth/facebook/callback", q.Get("redirect_uri"))

	prof, err := p.HandleCallback(context.Background(), "good", "")
	require.NoError(t, err)
	assert.Equal(t, "fb-1", prof.ID)
	assert.Equal(t, "Ana", prof.DisplayName)
	assert.Equal(t, "provider-at", prof.AccessToken)
	assert.Equal(t, "provider-rt", prof.RefreshToken)
	assert.Equal(t, "Bearer provider-at", f.bearer)
}

func TestTwitter_UsesPKCE(t *testing.T) {
	f := newFakeProvider(t, `{"data":{"id":"42","name":"","username":"jack"}}`)
	p := NewTwitter(creds("twitter"), f.opts(oauth2.AuthStyleInHeader)...)
	require.Equal(t, "x", p.Key())
	require.True(t, p.UsesPKCE())

	verifier := oauth2.GenerateVerifier()
	u, err := url.Parse(p.Initiate("st", verifier))
	require.NoError(t, err)
	assert.Equal(t, "S256", u.Query().Get("code_challenge_method"))
	assert.NotEmpty(t, u.Query().Get("code_challenge"))

	prof, err := p.HandleCallback(context.Background(), "good", verifier)
	require.NoError(t, err)
	assert.Equal(t, "42", prof.ID)
	assert.Equal(t, "jack", prof.DisplayName)
	assert.Equal(t, verifier, f.lastForm.Get("code_verifier"))
	assert.True(t, strings.HasPrefix(f.lastAuth, "Basic "))
}

func TestLinkedIn_ParsesUserinfo(t *testing.T) {
	f := newFakeProvider(t, `{"sub":"li-7","name":"Luis"}`)
	p := NewLinkedIn(creds("linkedin"), f.opts(oauth2.AuthStyleInParams)...)

	prof, err := p.HandleCallback(context.Background(), "good", "")
	require.NoError(t, err)
	assert.Equal(t, "li-7", prof.ID)
	assert.Equal(t, "Luis", prof.DisplayName)
}

func TestTikTok_ClientKey(t *testing.T) {
	f := newFakeProvider(t, `{"data":{"user":{"open_id":"tt-9","display_name":"Tok"}}}`)
	p := NewTikTok(creds("tiktok"), f.opts(oauth2.AuthStyleInParams)...)

	u, err := url.Parse(p.Initiate("st", ""))
	require.NoError(t, err)
	assert.Equal(t, "tiktok-id", u.Query().Get("client_key"))
	assert.Empty(t, u.Query().Get("client_id"))

	prof, err := p.HandleCallback(context.Background(), "good", "")
	require.NoError(t, err)
	assert.Equal(t, "tt-9", prof.ID)
	assert.Equal(t, "tiktok-id", f.lastForm.Get("client_key"))
}

func TestHandleCallback_Errors(t *testing.T) {
	f := newFakeProvider(t, `{"name":"no id"}`)
	p := NewFacebook(creds("facebook"), f.opts(oauth2.AuthStyleInParams)...)

	_, err := p.HandleCallback(context.Background(), "bad", "")
	require.ErrorIs(t, err, ErrExchange)

	_, err = p.HandleCallback(context.Background(), "good", "")
	require.ErrorIs(t, err, ErrProfile)
}

func TestRegistry_SkipsMissingCredentials(t *testing.T) {
	r := NewRegistry()
	require.False(t, r.Register(Credentials{ClientID: "only-id"}, NewFacebook))
	require.True(t, r.Register(creds("twitter"), NewTwitter))

	_, ok := r.Get("facebook")
	require.False(t, ok)
	p, ok := r.Get("twitter")
	require.True(t, ok)
	require.Equal(t, "x", p.Key())
	require.Equal(t, []string{"twitter"}, r.Names())
}

func TestFromConfig(t *testing.T) {
	var cfg config.Config
	cfg.Server.PublicURL = "https://connect.example.com"
	cfg.Providers.LinkedIn = config.ProviderCredentials{ClientID: "id", ClientSecret: "s", Scopes: []string{"openid"}}
	cfg.Providers.TikTok = config.ProviderCredentials{ClientID: "key"}

	r := FromConfig(cfg)
	require.Equal(t, []string{"linkedin"}, r.Names())

	p, _ := r.Get("linkedin")
	u, err := url.Parse(p.Initiate("s", ""))
	require.NoError(t, err)
	require.Equal(t, "https://connect.example.com/auth/linkedin/callback", u.Query().Get("redirect_uri"))
}
