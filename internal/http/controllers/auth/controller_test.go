package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialconnect/internal/cache"
	"github.com/dropDatabas3/socialconnect/internal/events"
	"github.com/dropDatabas3/socialconnect/internal/http/providers"
	"github.com/dropDatabas3/socialconnect/internal/http/providers/providertest"
	svc "github.com/dropDatabas3/socialconnect/internal/http/services/handshake"
	"github.com/dropDatabas3/socialconnect/internal/identity"
	"github.com/dropDatabas3/socialconnect/internal/jwt"
)

var msgRe = regexp.MustCompile(`var msg =\s*(\{.*?\})\s*;`)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := providers.NewRegistry()
	reg.Add(providertest.New("linkedin", "linkedin").Accept("good", providers.Profile{ID: "li-1", DisplayName: "Ana"}))
	reg.Add(providertest.New("twitter", "x"))

	signer, err := jwt.NewSigner("secret")
	require.NoError(t, err)
	s, err := svc.NewService(svc.Deps{
		Providers: reg,
		Sessions:  cache.NewMemory(""),
		Subjects:  identity.NewMemoryStore(),
		Signer:    signer,
	})
	require.NoError(t, err)

	c := NewController(s)
	r := chi.NewRouter()
	r.Get("/auth/failed/{provider}", c.Failed)
	r.Get("/auth/{provider}", c.Start)
	r.Get("/auth/{provider}/callback", c.Callback)
	return r
}

func pageMessage(t *testing.T, body string) events.Message {
	t.Helper()
	m := msgRe.FindStringSubmatch(body)
	require.Len(t, m, 2, body)
	var msg events.Message
	require.NoError(t, json.Unmarshal([]byte(m[1]), &msg))
	return msg
}

func do(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil).WithContext(context.Background()))
	return rec
}

func TestStart_RedirectsOrNotFound(t *testing.T) {
	h := newRouter(t)

	rec := do(h, "/auth/linkedin")
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.NotEmpty(t, loc.Query().Get("state"))

	rec = do(h, "/auth/facebook")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "PROVIDER_DISABLED")
}

func TestCallback_SuccessPage(t *testing.T) {
	h := newRouter(t)

	start := do(h, "/auth/linkedin")
	state := providertest.StateFrom(start.Header().Get("Location"))

	rec := do(h, "/auth/linkedin/callback?code=good&state="+url.QueryEscape(state))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Header().Get("Content-Security-Policy"), "nonce-")
	require.Contains(t, rec.Body.String(), `postMessage(msg, "*")`)
	require.Contains(t, rec.Body.String(), "window.close()")

	msg := pageMessage(t, rec.Body.String())
	require.Equal(t, events.TypeAuthSuccess, msg.Type)
	require.Equal(t, "linkedin", msg.Platform)
	require.NotEmpty(t, msg.Token)
}

func TestCallback_TwitterFailurePage(t *testing.T) {
	h := newRouter(t)

	rec := do(h, "/auth/twitter/callback?error=access_denied&state=nope")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	msg := pageMessage(t, rec.Body.String())
	require.Equal(t, events.Failure("x"), msg)
}

func TestFailedRoute(t *testing.T) {
	h := newRouter(t)

	rec := do(h, "/auth/failed/facebook")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, events.Failure("meta"), pageMessage(t, rec.Body.String()))
}
