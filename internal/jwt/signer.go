// Package jwt emite y verifica el SignedToken de la aplicación (HS256, secreto compartido).
//
// El token es opaco para el cliente: solo se verifica por firma y expiración.
package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// DefaultTTL es la vida del SignedToken.
const DefaultTTL = time.Hour

var (
	ErrNoSecret       = errors.New("jwt: signing secret not configured")
	ErrTokenMalformed = errors.New("jwt: malformed token")
	ErrTokenExpired   = errors.New("jwt: token expired")
	ErrSignature      = errors.New("jwt: invalid signature")
	ErrMissingSubject = errors.New("jwt: subject id required")
)

// Claims es el payload del SignedToken: {id, displayName, provider, iat, exp}.
type Claims struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Provider    string `json:"provider"`
	jwtv5.RegisteredClaims
}

// Identity es lo mínimo que se firma.
type Identity struct {
	ID          string
	DisplayName string
	Provider    string
}

// Signer firma y valida tokens con un secreto compartido.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configura un Signer.
type Option func(*Signer)

// WithTTL cambia la vida del token (default 1h).
func WithTTL(ttl time.Duration) Option {
	return func(s *Signer) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock inyecta el reloj; usado en tests.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSigner crea un Signer. El secreto no puede ser vacío.
func NewSigner(secret string, opts ...Option) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	s := &Signer{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// TTL devuelve la vida configurada.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Issue firma un token para la identidad. exp = iat + TTL exacto (resolución de segundos).
func (s *Signer) Issue(id Identity) (string, *Claims, error) {
	if strings.TrimSpace(id.ID) == "" {
		return "", nil, ErrMissingSubject
	}
	iat := s.now().UTC().Truncate(time.Second)
	claims := &Claims{
		ID:          id.ID,
		DisplayName: id.DisplayName,
		Provider:    id.Provider,
		RegisteredClaims: jwtv5.RegisteredClaims{
			IssuedAt:  jwtv5.NewNumericDate(iat),
			ExpiresAt: jwtv5.NewNumericDate(iat.Add(s.ttl)),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, claims, nil
}

// Parse valida firma y expiración y devuelve las claims.
func (s *Signer) Parse(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenMalformed
	}
	claims := &Claims{}
	_, err := jwtv5.ParseWithClaims(raw, claims,
		func(t *jwtv5.Token) (any, error) { return s.secret, nil },
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithIssuedAt(),
		jwtv5.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwtv5.ErrTokenSignatureInvalid), errors.Is(err, jwtv5.ErrTokenUnverifiable):
		return nil, ErrSignature
	default:
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrTokenMalformed)
	}
	return claims, nil
}
