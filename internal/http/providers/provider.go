// Package providers implementa las estrategias de autorización por proveedor.
// Cada variante es un AuthProvider registrado solo si sus credenciales de servidor
// están presentes; una variante ausente deja su ruta deshabilitada.
package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

// Profile es lo que el servidor necesita del proveedor para el upsert del sujeto.
type Profile struct {
	ID           string
	DisplayName  string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// AuthProvider es la capacidad {initiate, handleCallback} de un proveedor.
type AuthProvider interface {
	// Name es el identificador de ruta (facebook, twitter, linkedin, tiktok).
	Name() string
	// Key es la clave normalizada que viaja en el mensaje de completado (meta, x, ...).
	Key() string
	// Initiate devuelve la URL de autorización. verifier vacío => sin PKCE.
	Initiate(state, verifier string) string
	// HandleCallback intercambia el code y resuelve el perfil.
	HandleCallback(ctx context.Context, code, verifier string) (*Profile, error)
	// UsesPKCE indica si Initiate espera un verifier.
	UsesPKCE() bool
}

// Credentials del lado servidor para una variante.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

var (
	ErrExchange = errors.New("providers: code exchange failed")
	ErrProfile  = errors.New("providers: profile lookup failed")
)

// Option ajusta una variante (endpoints y cliente HTTP para tests o regiones).
type Option func(*oauthProvider)

func WithEndpoint(ep oauth2.Endpoint) Option {
	return func(p *oauthProvider) { p.conf.Endpoint = ep }
}

func WithProfileURL(u string) Option {
	return func(p *oauthProvider) { p.profileURL = u }
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *oauthProvider) {
		if c != nil {
			p.http = c
		}
	}
}

// oauthProvider es la base común: authorization-code sobre x/oauth2 + GET de perfil.
type oauthProvider struct {
	name       string
	key        string
	conf       *oauth2.Config
	pkce       bool
	profileURL string
	http       *http.Client

	// authURL permite a una variante reescribir la URL (p.ej. client_key de TikTok).
	authURL      func(string) string
	authOpts     []oauth2.AuthCodeOption
	exchangeOpts []oauth2.AuthCodeOption
	parse        func(gjson.Result) (id, name string)
}

func newOAuthProvider(name, key string, c Credentials, ep oauth2.Endpoint) *oauthProvider {
	return &oauthProvider{
		name: name,
		key:  key,
		conf: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       append([]string(nil), c.Scopes...),
			Endpoint:     ep,
		},
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *oauthProvider) apply(opts []Option) *oauthProvider {
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *oauthProvider) Name() string   { return p.name }
func (p *oauthProvider) Key() string    { return p.key }
func (p *oauthProvider) UsesPKCE() bool { return p.pkce }

func (p *oauthProvider) Initiate(state, verifier string) string {
	opts := append([]oauth2.AuthCodeOption(nil), p.authOpts...)
	if p.pkce && verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}
	u := p.conf.AuthCodeURL(state, opts...)
	if p.authURL != nil {
		u = p.authURL(u)
	}
	return u
}

func (p *oauthProvider) HandleCallback(ctx context.Context, code, verifier string) (*Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)

	opts := append([]oauth2.AuthCodeOption(nil), p.exchangeOpts...)
	if p.pkce && verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	tok, err := p.conf.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExchange, p.name, err)
	}

	body, err := p.fetchProfile(ctx, tok)
	if err != nil {
		return nil, err
	}
	id, name := p.parse(gjson.ParseBytes(body))
	if id == "" {
		return nil, fmt.Errorf("%w: %s: missing profile id", ErrProfile, p.name)
	}
	return &Profile{
		ID:           id,
		DisplayName:  name,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

func (p *oauthProvider) fetchProfile(ctx context.Context, tok *oauth2.Token) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProfile, p.name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProfile, p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProfile, p.name, err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: %s: http %d", ErrProfile, p.name, resp.StatusCode)
	}
	return body, nil
}
