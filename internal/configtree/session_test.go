package configtree

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
currentSelection:
  user: ana
  brand: acme
  platform: meta
users:
  ana:
    brands:
      acme:
        details:
          name: Acme
        platforms:
          meta:
            dev:
              credentials:
                app_id: "123"
              oauth:
                redirect_uri: http://localhost:8080/auth/facebook/callback
                scopes: pages_show_list,pages_manage_posts
`

func TestLoadSeed_FillsMissingStage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	c, err := LoadSeed(path)
	require.NoError(t, err)

	dev, ok := c.ActiveEnvironment(PlatformMeta, StageDev)
	require.True(t, ok)
	assert.Equal(t, "123", dev.Credential("app_id"))
	assert.Equal(t, "pages_show_list,pages_manage_posts", dev.OAuth.Scopes)

	live, ok := c.ActiveEnvironment(PlatformMeta, StageLive)
	require.True(t, ok)
	assert.Contains(t, live.Credentials, "app_secret")
	assert.Contains(t, live.Tokens, "page")
}

func TestSession_SnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewSession(nil).WithSnapshot(path)

	_, err := s.Apply(func(c *AppConfig) (*AppConfig, error) { return c.AddUser("ana") })
	require.NoError(t, err)
	_, err = s.Apply(func(c *AppConfig) (*AppConfig, error) { return c.AddBrand("acme") })
	require.NoError(t, err)
	_, err = s.Update(ParsePath("platforms.x.dev.credentials.consumer_key"), "ck")
	require.NoError(t, err)

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	v, ok := loaded.Get(ParsePath("platforms.x.dev.credentials.consumer_key"))
	require.True(t, ok)
	assert.Equal(t, "ck", v)
	assert.Equal(t, Selection{User: "ana", Brand: "acme"}, loaded.CurrentSelection)
}

func TestSession_ApplyRebasesOnSnapshotWrittenElsewhere(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	base, err := Empty().AddUser("ana")
	require.NoError(t, err)
	base, err = base.AddBrand("acme")
	require.NoError(t, err)

	// dos procesos que leyeron el mismo estado
	connect := NewSession(base).WithSnapshot(path)
	edit := NewSession(base).WithSnapshot(path)

	_, err = edit.Update(ParsePath("platforms.meta.dev.credentials.app_id"), "123")
	require.NoError(t, err)
	_, err = connect.Update(ParsePath("platforms.meta.dev.tokens.user"), "stored-in-tokenstore")
	require.NoError(t, err)

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	for key, want := range map[string]string{
		"platforms.meta.dev.credentials.app_id": "123",
		"platforms.meta.dev.tokens.user":        "stored-in-tokenstore",
	} {
		v, ok := loaded.Get(ParsePath(key))
		require.True(t, ok, key)
		assert.Equal(t, want, v, key)
	}
	v, _ := connect.Current().Get(ParsePath("platforms.meta.dev.credentials.app_id"))
	assert.Equal(t, "123", v)
}

func TestSession_CorruptSnapshotFailsApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	s := NewSession(nil).WithSnapshot(path)
	before := s.Current()
	_, err := s.Apply(func(c *AppConfig) (*AppConfig, error) { return c.AddUser("ana") })
	require.Error(t, err)
	assert.Same(t, before, s.Current())
}

func TestSession_FailedApplyKeepsTree(t *testing.T) {
	s := NewSession(nil)
	before := s.Current()
	_, err := s.Apply(func(*AppConfig) (*AppConfig, error) { return nil, errors.New("boom") })
	require.Error(t, err)
	assert.Same(t, before, s.Current())
}

func TestSession_ConcurrentWritesAreSerialized(t *testing.T) {
	s := NewSession(Empty().Select(Selection{User: "ana", Brand: "acme"}))
	var wg sync.WaitGroup
	for _, p := range Platforms {
		wg.Add(1)
		go func(p Platform) {
			defer wg.Done()
			_, err := s.Update([]string{"platforms", string(p), "dev", "oauth", "scopes"}, "s-"+string(p))
			assert.NoError(t, err)
		}(p)
	}
	wg.Wait()

	b, ok := s.Current().SelectedBrand()
	require.True(t, ok)
	assert.Len(t, b.Platforms, len(Platforms))
}

func TestLoadSnapshot_Missing(t *testing.T) {
	c, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Nil(t, c)
}
