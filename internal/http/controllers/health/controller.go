// Package health contiene el controller para health checks.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/socialconnect/internal/http/helpers"
	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
)

// Pinger es cualquier dependencia con chequeo de salud (cache, redis).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Response de /readyz.
type Response struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Providers  []string          `json:"providers"`
	Components map[string]string `json:"components"`
}

type Controller struct {
	version   string
	providers func() []string
	deps      map[string]Pinger
}

func NewController(version string, providers func() []string, deps map[string]Pinger) *Controller {
	return &Controller{version: version, providers: providers, deps: deps}
}

// Healthz handles GET /healthz (liveness).
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := Response{Status: "ready", Version: c.version, Components: map[string]string{}}
	if c.providers != nil {
		resp.Providers = c.providers()
	}
	for name, p := range c.deps {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			logger.From(ctx).Warn("readiness component down", logger.Component(name), logger.Err(err))
			resp.Components[name] = "down"
			resp.Status = "unavailable"
			continue
		}
		resp.Components[name] = "up"
	}

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	helpers.WriteJSON(w, status, resp)
}
