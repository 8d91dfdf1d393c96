// Package metrics define los collectors Prometheus del servidor. Vive aparte para
// que handshake, middlewares y validation lo importen sin ciclos.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HandshakeTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "handshake_transitions_total",
		Help: "Transiciones de la máquina de estados del handshake por proveedor",
	}, []string{"provider", "state"})

	TokenGateRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "token_gate_rejections_total",
		Help: "Requests rechazados por el token gate",
	}, []string{"reason"})

	ValidationChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "validation_checks_total",
		Help: "Resultados de checks de validación",
	}, []string{"check", "status"})

	ProviderCallLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "provider_call_latency_ms",
		Help:    "Latencia de llamadas a APIs de proveedores en milisegundos",
		Buckets: prometheus.ExponentialBuckets(5, 2, 10),
	}, []string{"provider", "outcome"})
)

// Register registra los collectors en reg (o el default si nil). Tolera doble registro.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{HandshakeTransitions, TokenGateRejections, ValidationChecks, ProviderCallLatency} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}
