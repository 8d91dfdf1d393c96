package validation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialconnect/internal/configtree"
	"github.com/dropDatabas3/socialconnect/internal/graph"
	"github.com/dropDatabas3/socialconnect/internal/tokenstore"
)

func TestRemote_SendsSignedTokenAndSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/validate", r.URL.Path)
		assert.Equal(t, "Bearer signed-meta", r.Header.Get("Authorization"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "meta", body["platform"])
		assert.Equal(t, tokenstore.Sentinel, body["userToken"])
		assert.Equal(t, "a,c", body["requiredScopes"])
		_, _ = w.Write([]byte(`{"platform":"meta","ok":true,"checks":[{"name":"user_token","status":"ok"}]}`))
	}))
	t.Cleanup(srv.Close)

	tokens := tokenstore.NewMemoryStore()
	require.NoError(t, tokens.Set(context.Background(), "meta", "signed-meta"))
	client := graph.New(graph.WithHTTPClient(srv.Client()), graph.WithRetries(1, time.Millisecond))

	env := metaEnv()
	env.Tokens["user"] = tokenstore.Sentinel
	rep, err := NewRemote(client, srv.URL+"/", tokens).ValidateEnvironment(context.Background(), configtree.PlatformMeta, configtree.StageLive, env)
	require.NoError(t, err)
	require.True(t, rep.OK)
	require.Equal(t, configtree.StageLive, rep.Stage)
	require.Equal(t, CheckOK, checkByName(rep, CheckUserToken).Status)
}

func TestRemote_NotConnected(t *testing.T) {
	_, err := NewRemote(nil, "http://127.0.0.1:0", tokenstore.NewMemoryStore()).
		ValidateEnvironment(context.Background(), configtree.PlatformMeta, configtree.StageDev, metaEnv())
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestRemote_GateRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthenticated","message":"token expired"}`))
	}))
	t.Cleanup(srv.Close)

	tokens := tokenstore.NewMemoryStore()
	require.NoError(t, tokens.Set(context.Background(), "meta", "expired"))
	client := graph.New(graph.WithHTTPClient(srv.Client()), graph.WithRetries(1, time.Millisecond))
	_, err := NewRemote(client, srv.URL, tokens).ValidateEnvironment(context.Background(), configtree.PlatformMeta, configtree.StageDev, metaEnv())
	require.True(t, graph.IsStatus(err, http.StatusUnauthorized))
}
