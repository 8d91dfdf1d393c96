package handshake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialconnect/internal/configtree"
	"github.com/dropDatabas3/socialconnect/internal/events"
	"github.com/dropDatabas3/socialconnect/internal/tokenstore"
)

type recordingOpener struct {
	mu     sync.Mutex
	opened []WindowSpec
	err    error
}

func (o *recordingOpener) Open(_ context.Context, w WindowSpec) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, w)
	return o.err
}

func (o *recordingOpener) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.opened)
}

type fixture struct {
	coord   *Coordinator
	session *configtree.Session
	tokens  *tokenstore.MemoryStore
	hub     *events.Hub
	opener  *recordingOpener
}

func newFixture(t *testing.T, seed *configtree.AppConfig) *fixture {
	t.Helper()
	f := &fixture{
		session: configtree.NewSession(seed),
		tokens:  tokenstore.NewMemoryStore(),
		hub:     events.NewHub(),
		opener:  &recordingOpener{},
	}
	coord, err := New(Deps{
		Session:   f.session,
		Tokens:    f.tokens,
		Bus:       f.hub,
		Opener:    f.opener,
		ServerURL: "http://localhost:8080/",
	})
	require.NoError(t, err)
	f.coord = coord
	t.Cleanup(func() { _ = coord.Close() })
	return f
}

func configured(t *testing.T) *configtree.AppConfig {
	t.Helper()
	c, err := configtree.Empty().AddUser("ana")
	require.NoError(t, err)
	c, err = c.AddBrand("acme")
	require.NoError(t, err)
	set := func(path, v string) {
		c, err = c.Update(configtree.ParsePath(path), v)
		require.NoError(t, err)
	}
	set("platforms.meta.dev.credentials.app_id", "111")
	set("platforms.meta.dev.oauth.redirect_uri", "http://localhost:8080/auth/facebook/callback")
	set("platforms.instagram.live.credentials.app_id", "111")
	set("platforms.instagram.live.oauth.redirect_uri", "http://localhost:8080/auth/facebook/callback")
	set("platforms.x.dev.credentials.consumer_key", "ck")
	set("platforms.x.dev.oauth.redirect_uri", "http://localhost:8080/auth/twitter/callback")
	set("platforms.pinterest.dev.credentials.app_id", "p")
	set("platforms.pinterest.dev.oauth.redirect_uri", "http://localhost/cb")
	set("platforms.linkedin.dev.credentials.client_id", "li")
	return c
}

func TestConnect_EmptyRedirectURI_NoWindowNoListener(t *testing.T) {
	f := newFixture(t, configured(t))

	_, err := f.coord.Connect(context.Background(), configtree.PlatformLinkedIn, configtree.StageDev)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, []string{"oauth.redirect_uri"}, cfgErr.Missing)
	assert.Zero(t, f.opener.count())
	assert.Zero(t, f.hub.Len())
	assert.Zero(t, f.coord.PendingCount())
}

func TestConnect_EmptyTreeBlankCredentials(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.coord.Connect(context.Background(), configtree.PlatformLinkedIn, configtree.StageDev)

	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Zero(t, f.opener.count())
	assert.Zero(t, f.hub.Len())
}

func TestConnect_PinterestHasNoRoute(t *testing.T) {
	f := newFixture(t, configured(t))
	_, err := f.coord.Connect(context.Background(), configtree.PlatformPinterest, configtree.StageDev)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Zero(t, f.opener.count())
}

func TestConnect_OpensSizedWindowAtProviderRoute(t *testing.T) {
	f := newFixture(t, configured(t))

	p, err := f.coord.Connect(context.Background(), configtree.PlatformX, configtree.StageDev)
	require.NoError(t, err)
	defer p.Cancel()

	require.Equal(t, 1, f.opener.count())
	w := f.opener.opened[0]
	assert.Equal(t, "http://localhost:8080/auth/twitter", w.URL)
	assert.Equal(t, 600, w.Width)
	assert.Equal(t, 700, w.Height)
	assert.Equal(t, "width=600,height=700", w.Features())
	assert.Equal(t, 1, f.hub.Len())
}

func TestConnect_SuccessStoresTokenAndMarksConfig(t *testing.T) {
	f := newFixture(t, configured(t))
	ctx := context.Background()

	p, err := f.coord.Connect(ctx, configtree.PlatformMeta, configtree.StageDev)
	require.NoError(t, err)

	require.NoError(t, f.hub.Publish(ctx, events.Success("meta", "signed-token")))

	res, err := p.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusConnected, res.Status)
	assert.Equal(t, "signed-token", res.Token)

	tok, err := f.tokens.Get(ctx, "meta")
	require.NoError(t, err)
	assert.Equal(t, "signed-token", tok)

	env, _ := f.session.Current().ActiveEnvironment(configtree.PlatformMeta, configtree.StageDev)
	assert.Equal(t, TokenStoreSentinel, env.Tokens["user"])
	assert.Zero(t, f.hub.Len(), "listener must be removed after resolution")
	assert.Zero(t, f.coord.PendingCount())
}

func TestConnect_InstagramUsesMetaRouteAndKey(t *testing.T) {
	f := newFixture(t, configured(t))
	ctx := context.Background()

	p, err := f.coord.Connect(ctx, configtree.PlatformInstagram, configtree.StageLive)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/auth/facebook", f.opener.opened[0].URL)

	require.NoError(t, f.hub.Publish(ctx, events.Success("meta", "ig-token")))
	res, err := p.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "meta", res.ProviderKey)

	ig, _ := f.session.Current().ActiveEnvironment(configtree.PlatformInstagram, configtree.StageLive)
	assert.Equal(t, TokenStoreSentinel, ig.Tokens["user"])
	meta, _ := f.session.Current().ActiveEnvironment(configtree.PlatformMeta, configtree.StageDev)
	assert.Empty(t, meta.Tokens["user"])
}

func TestConnect_FailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, configured(t))
	ctx := context.Background()
	before := f.session.Current()

	p, err := f.coord.Connect(ctx, configtree.PlatformX, configtree.StageDev)
	require.NoError(t, err)

	require.NoError(t, f.hub.Publish(ctx, events.Failure("x")))

	res, err := p.Wait(ctx)
	assert.ErrorIs(t, err, ErrAuthenticationFailure)
	assert.Equal(t, StatusFailed, res.Status)

	_, err = f.tokens.Get(ctx, "x")
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
	assert.Same(t, before, f.session.Current())
	assert.Zero(t, f.hub.Len())
}

func TestConnect_IgnoresOtherProvidersAndDuplicates(t *testing.T) {
	f := newFixture(t, configured(t))
	ctx := context.Background()

	p, err := f.coord.Connect(ctx, configtree.PlatformX, configtree.StageDev)
	require.NoError(t, err)

	require.NoError(t, f.hub.Publish(ctx, events.Success("meta", "not-mine")))
	select {
	case <-p.Done():
		t.Fatal("resolved by another provider's message")
	default:
	}

	require.NoError(t, f.hub.Publish(ctx, events.Success("twitter", "mine")))
	require.NoError(t, f.hub.Publish(ctx, events.Success("x", "late")))

	res, err := p.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mine", res.Token)
	tok, _ := f.tokens.Get(ctx, "x")
	assert.Equal(t, "mine", tok)
}

func TestConnect_SamePlatformTwiceBothListenersFire(t *testing.T) {
	f := newFixture(t, configured(t))
	ctx := context.Background()

	p1, err := f.coord.Connect(ctx, configtree.PlatformMeta, configtree.StageDev)
	require.NoError(t, err)
	p2, err := f.coord.Connect(ctx, configtree.PlatformMeta, configtree.StageDev)
	require.NoError(t, err)
	assert.Equal(t, 2, f.hub.Len())

	require.NoError(t, f.hub.Publish(ctx, events.Success("meta", "t")))

	for _, p := range []*Pending{p1, p2} {
		res, err := p.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, StatusConnected, res.Status)
	}
	assert.Zero(t, f.hub.Len())
}

func TestWait_ContextEndsButListenerStays(t *testing.T) {
	f := newFixture(t, configured(t))

	p, err := f.coord.Connect(context.Background(), configtree.PlatformMeta, configtree.StageDev)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	res, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusPending, res.Status)
	assert.Equal(t, 1, f.hub.Len())

	p.Cancel()
	_, err = p.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Zero(t, f.hub.Len())
}

func TestClose_DeregistersEverything(t *testing.T) {
	f := newFixture(t, configured(t))
	ctx := context.Background()

	p1, err := f.coord.Connect(ctx, configtree.PlatformMeta, configtree.StageDev)
	require.NoError(t, err)
	p2, err := f.coord.Connect(ctx, configtree.PlatformX, configtree.StageDev)
	require.NoError(t, err)

	require.NoError(t, f.coord.Close())

	for _, p := range []*Pending{p1, p2} {
		_, err := p.Wait(ctx)
		assert.ErrorIs(t, err, ErrClosed)
	}
	assert.Zero(t, f.hub.Len())

	_, err = f.coord.Connect(ctx, configtree.PlatformMeta, configtree.StageDev)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConnect_OpenerFailureReleasesListener(t *testing.T) {
	f := newFixture(t, configured(t))
	f.opener.err = errors.New("no display")

	_, err := f.coord.Connect(context.Background(), configtree.PlatformMeta, configtree.StageDev)
	require.Error(t, err)
	assert.Zero(t, f.hub.Len())
	assert.Zero(t, f.coord.PendingCount())
}

func TestNew_ValidatesDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)

	_, err = New(Deps{
		Session:   configtree.NewSession(nil),
		Tokens:    tokenstore.NewMemoryStore(),
		Bus:       events.NewHub(),
		Opener:    OpenerFunc(func(context.Context, WindowSpec) error { return nil }),
		ServerURL: "::not a url",
	})
	assert.Error(t, err)
}
