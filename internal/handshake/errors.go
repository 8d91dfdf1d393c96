package handshake

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration agrupa los *ConfigurationError (errors.Is).
	ErrConfiguration = errors.New("handshake: configuration error")
	// ErrAuthenticationFailure agrupa los *AuthenticationFailure (errors.Is).
	ErrAuthenticationFailure = errors.New("handshake: authentication failure")
	ErrCancelled             = errors.New("handshake: cancelled")
	ErrClosed                = errors.New("handshake: coordinator closed")
)

// ConfigurationError se devuelve antes de cualquier acción de red.
type ConfigurationError struct {
	Platform string
	Stage    string
	Missing  []string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "handshake: %s/%s not configured", e.Platform, e.Stage)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing %s", strings.Join(e.Missing, ", "))
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// AuthenticationFailure: el proveedor negó o la estrategia falló. Nunca se emitió token.
type AuthenticationFailure struct {
	Platform string
}

func (e *AuthenticationFailure) Error() string {
	return fmt.Sprintf("handshake: authorization failed for %s", e.Platform)
}

func (e *AuthenticationFailure) Is(target error) bool { return target == ErrAuthenticationFailure }
