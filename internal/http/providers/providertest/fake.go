// Package providertest provee un AuthProvider en memoria para tests.
package providertest

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/dropDatabas3/socialconnect/internal/http/providers"
)

// ErrRejected lo devuelve HandleCallback para códigos no registrados.
var ErrRejected = errors.New("providertest: code rejected")

// Fake acepta los códigos registrados en Codes y devuelve su Profile.
type Fake struct {
	RouteName string
	KeyName   string
	PKCE      bool
	AuthBase  string

	mu        sync.Mutex
	codes     map[string]providers.Profile
	verifiers []string
}

func New(name, key string) *Fake {
	return &Fake{RouteName: name, KeyName: key, AuthBase: "https://provider.test/authorize", codes: map[string]providers.Profile{}}
}

// Accept registra un código válido.
func (f *Fake) Accept(code string, p providers.Profile) *Fake {
	f.mu.Lock()
	f.codes[code] = p
	f.mu.Unlock()
	return f
}

func (f *Fake) Name() string   { return f.RouteName }
func (f *Fake) Key() string    { return f.KeyName }
func (f *Fake) UsesPKCE() bool { return f.PKCE }

func (f *Fake) Initiate(state, verifier string) string {
	q := url.Values{}
	q.Set("state", state)
	if verifier != "" {
		q.Set("code_challenge", "x")
	}
	return f.AuthBase + "?" + q.Encode()
}

func (f *Fake) HandleCallback(_ context.Context, code, verifier string) (*providers.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifiers = append(f.verifiers, verifier)
	p, ok := f.codes[code]
	if !ok {
		return nil, ErrRejected
	}
	return &p, nil
}

// Verifiers devuelve los verifiers recibidos en HandleCallback.
func (f *Fake) Verifiers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.verifiers...)
}

// StateFrom extrae el state de una URL devuelta por Initiate.
func StateFrom(authURL string) string {
	u, err := url.Parse(authURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("state")
}
