// Package handshake abre la ventana de autorización de un proveedor y espera una
// única señal de fin (éxito o fallo) para actualizar TokenStore y ConfigTree.
//
// No hay timeout: si la ventana se cierra sin emitir señal, el Pending queda abierto
// hasta que el llamador lo cancele o cierre el Coordinator.
package handshake

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/socialconnect/internal/configtree"
	"github.com/dropDatabas3/socialconnect/internal/events"
	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
	"github.com/dropDatabas3/socialconnect/internal/tokenstore"
	"github.com/dropDatabas3/socialconnect/internal/util"
)

// TokenStoreSentinel reemplaza tokens.user en el ConfigTree: el valor real vive en TokenStore.
const TokenStoreSentinel = tokenstore.Sentinel

// storeTimeout acota las escrituras a TokenStore hechas desde el listener.
const storeTimeout = 5 * time.Second

// RouteFor resuelve la plataforma a la ruta del AuthServer.
// Pinterest no tiene estrategia en el servidor.
func RouteFor(p configtree.Platform) (string, bool) {
	switch p {
	case configtree.PlatformMeta, configtree.PlatformInstagram:
		return "facebook", true
	case configtree.PlatformX:
		return "twitter", true
	case configtree.PlatformLinkedIn:
		return "linkedin", true
	case configtree.PlatformTikTok:
		return "tiktok", true
	}
	return "", false
}

// Deps son las dependencias del Coordinator.
type Deps struct {
	Session   *configtree.Session
	Tokens    tokenstore.Store
	Bus       events.Bus
	Opener    WindowOpener
	ServerURL string // base del AuthServer, ej. http://localhost:8080
}

// Coordinator implementa connect(platform, stage).
type Coordinator struct {
	session   *configtree.Session
	tokens    tokenstore.Store
	bus       events.Bus
	opener    WindowOpener
	serverURL string

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*Pending
	closed  bool
}

// New valida las dependencias.
func New(d Deps) (*Coordinator, error) {
	switch {
	case d.Session == nil:
		return nil, errors.New("handshake: session required")
	case d.Tokens == nil:
		return nil, errors.New("handshake: token store required")
	case d.Bus == nil:
		return nil, errors.New("handshake: bus required")
	case d.Opener == nil:
		return nil, errors.New("handshake: opener required")
	}
	base := strings.TrimRight(strings.TrimSpace(d.ServerURL), "/")
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("handshake: invalid server url %q: %w", d.ServerURL, err)
	}
	return &Coordinator{
		session:   d.Session,
		tokens:    d.Tokens,
		bus:       d.Bus,
		opener:    d.Opener,
		serverURL: base,
		pending:   make(map[uint64]*Pending),
	}, nil
}

// Connect valida la configuración activa, registra un listener y abre la ventana.
// Con configuración incompleta falla con *ConfigurationError sin abrir ni registrar nada.
func (c *Coordinator) Connect(ctx context.Context, p configtree.Platform, stage configtree.Stage) (*Pending, error) {
	log := logger.From(ctx).With(logger.Component("handshake"), logger.Platform(string(p)), logger.Stage(string(stage)))

	route, err := c.preflight(p, stage)
	if err != nil {
		log.Warn("connect rejected", logger.Err(err))
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	id := c.nextID
	c.nextID++
	pending := newPending(id, p, stage, tokenstore.NormalizeKey(route), c)
	c.pending[id] = pending
	c.mu.Unlock()

	pending.setUnsubscribe(c.bus.Subscribe(pending.handle))

	win := WindowSpec{
		URL:    c.serverURL + "/auth/" + route,
		Name:   "auth-" + route,
		Width:  WindowWidth,
		Height: WindowHeight,
	}
	if err := c.opener.Open(ctx, win); err != nil {
		pending.finish(Result{Platform: p, Stage: stage, ProviderKey: pending.key, Status: StatusFailed},
			fmt.Errorf("handshake: open window: %w", err))
		return nil, err
	}

	log.Info("authorization window opened", logger.Provider(route), logger.String("url", win.URL))
	return pending, nil
}

// preflight comprueba credenciales y redirect_uri antes de cualquier I/O.
func (c *Coordinator) preflight(p configtree.Platform, stage configtree.Stage) (string, error) {
	env, _ := c.session.Current().ActiveEnvironment(p, stage)

	var missing []string
	if env.Credential(configtree.IdentifierField(p)) == "" {
		missing = append(missing, "credentials."+configtree.IdentifierField(p))
	}
	if strings.TrimSpace(env.OAuth.RedirectURI) == "" {
		missing = append(missing, "oauth.redirect_uri")
	}
	if len(missing) > 0 {
		return "", &ConfigurationError{Platform: string(p), Stage: string(stage), Missing: missing}
	}

	route, ok := RouteFor(p)
	if !ok {
		return "", &ConfigurationError{Platform: string(p), Stage: string(stage), Reason: "no authorization route for platform"}
	}
	return route, nil
}

// complete aplica el resultado de un auth-success: TokenStore y luego ConfigTree.
func (c *Coordinator) complete(p *Pending, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := c.tokens.Set(ctx, p.key, token); err != nil {
		return fmt.Errorf("handshake: store token: %w", err)
	}
	path := []string{"platforms", string(p.platform), string(p.stage), "tokens", "user"}
	if _, err := c.session.Update(path, TokenStoreSentinel); err != nil {
		return fmt.Errorf("handshake: update config: %w", err)
	}
	return nil
}

func (c *Coordinator) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// PendingCount devuelve cuántos handshakes siguen esperando señal.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close desregistra todos los listeners pendientes (teardown del componente).
func (c *Coordinator) Close() error {
	c.mu.Lock()
	c.closed = true
	all := make([]*Pending, 0, len(c.pending))
	for _, p := range c.pending {
		all = append(all, p)
	}
	c.mu.Unlock()

	for _, p := range all {
		p.finish(Result{Platform: p.platform, Stage: p.stage, ProviderKey: p.key, Status: StatusCancelled}, ErrClosed)
	}
	return nil
}

// maskedToken se usa solo para logs.
func maskedToken(tok string) string { return util.MaskSecret(tok) }
