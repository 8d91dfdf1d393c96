package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresSigningSecret(t *testing.T) {
	t.Setenv("TOKEN_SIGNING_SECRET", "")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_DefaultsAndMissingProvidersDisabled(t *testing.T) {
	t.Setenv("TOKEN_SIGNING_SECRET", "sign")
	t.Setenv("FACEBOOK_CLIENT_ID", "")
	t.Setenv("TWITTER_CLIENT_ID", "")

	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "http://localhost:8080", c.Server.PublicURL)
	assert.Equal(t, time.Hour, c.TokenTTL())
	assert.Equal(t, 10*time.Minute, c.SessionTTL())
	assert.False(t, c.Providers.Facebook.Enabled())
	assert.False(t, c.Providers.Twitter.Enabled())
	assert.NotEmpty(t, c.Providers.Facebook.Scopes)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  public_url: "https://connect.example.com/"
auth:
  token_signing_secret: from-yaml
providers:
  linkedin:
    client_id: yaml-id
    client_secret: yaml-secret
    scopes: [openid]
`), 0o600))

	t.Setenv("TOKEN_SIGNING_SECRET", "from-env")
	t.Setenv("FACEBOOK_CLIENT_ID", "fb-id")
	t.Setenv("FACEBOOK_CLIENT_SECRET", "fb-secret")
	t.Setenv("TIKTOK_SCOPES", "user.info.basic, video.list")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, "https://connect.example.com", c.Server.PublicURL)
	assert.Equal(t, "from-env", c.Auth.TokenSigningSecret)
	assert.True(t, c.Providers.Facebook.Enabled())
	assert.True(t, c.Providers.LinkedIn.Enabled())
	assert.Equal(t, []string{"openid"}, c.Providers.LinkedIn.Scopes)
	assert.False(t, c.Providers.TikTok.Enabled())
	assert.Len(t, c.Providers.TikTok.Scopes, 2)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("TOKEN_SIGNING_SECRET", "sign")
	t.Setenv("RATE_WINDOW", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_TokenTTLIsFixedAtOneHour(t *testing.T) {
	t.Setenv("TOKEN_SIGNING_SECRET", "sign")
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, os.WriteFile(path, []byte("auth:\n  token_ttl: 60m\n"), 0o600))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SignedTokenTTL, c.TokenTTL())

	require.NoError(t, os.WriteFile(path, []byte("auth:\n  token_ttl: 24h\n"), 0o600))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.token_ttl")
}

func TestLoad_TikTokClientIDAndKey(t *testing.T) {
	t.Setenv("TOKEN_SIGNING_SECRET", "sign")
	t.Setenv("TIKTOK_CLIENT_SECRET", "tt-secret")

	t.Setenv("TIKTOK_CLIENT_KEY", "")
	t.Setenv("TIKTOK_CLIENT_ID", "tt-id")
	c, err := Load("")
	require.NoError(t, err)
	assert.True(t, c.Providers.TikTok.Enabled())
	assert.Equal(t, "tt-id", c.Providers.TikTok.ClientID)

	t.Setenv("TIKTOK_CLIENT_KEY", "tt-key")
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "tt-key", c.Providers.TikTok.ClientID)
}
