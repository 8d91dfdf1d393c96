package providers

import (
	"sort"
	"strings"
	"sync"

	"github.com/dropDatabas3/socialconnect/internal/config"
	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
)

// Registry mapea nombre de ruta → AuthProvider habilitado.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]AuthProvider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]AuthProvider)}
}

// Register agrega la variante si tiene client id y secret; si no, la saltea y loguea.
// Devuelve true si quedó registrada.
func (r *Registry) Register(c Credentials, build func(Credentials, ...Option) AuthProvider, opts ...Option) bool {
	p := build(c, opts...)
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		logger.L().Warn("provider disabled: missing client credentials",
			logger.Provider(p.Name()),
			logger.Component("providers"))
		return false
	}
	r.Add(p)
	logger.L().Info("provider enabled", logger.Provider(p.Name()), logger.Component("providers"))
	return true
}

// Add registra una variante ya construida (tests, variantes externas).
func (r *Registry) Add(p AuthProvider) {
	r.mu.Lock()
	r.providers[p.Name()] = p
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (AuthProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Names devuelve los proveedores habilitados, ordenados.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for n := range r.providers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// FromConfig arma el registry con las cuatro variantes; el callback de cada una es
// {publicURL}/auth/{name}/callback.
func FromConfig(cfg config.Config) *Registry {
	r := NewRegistry()
	base := cfg.Server.PublicURL
	creds := func(name string, p config.ProviderCredentials) Credentials {
		return Credentials{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  base + "/auth/" + name + "/callback",
			Scopes:       p.Scopes,
		}
	}
	r.Register(creds("facebook", cfg.Providers.Facebook), NewFacebook)
	r.Register(creds("twitter", cfg.Providers.Twitter), NewTwitter)
	r.Register(creds("linkedin", cfg.Providers.LinkedIn), NewLinkedIn)
	r.Register(creds("tiktok", cfg.Providers.TikTok), NewTikTok)
	return r
}
