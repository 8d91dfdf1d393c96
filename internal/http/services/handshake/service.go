// Package handshake implementa el lado servidor del handshake OAuth: inicio de la
// redirección, recepción del callback, upsert del sujeto y emisión del SignedToken.
package handshake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/dropDatabas3/socialconnect/internal/cache"
	"github.com/dropDatabas3/socialconnect/internal/events"
	"github.com/dropDatabas3/socialconnect/internal/http/providers"
	"github.com/dropDatabas3/socialconnect/internal/identity"
	"github.com/dropDatabas3/socialconnect/internal/jwt"
	"github.com/dropDatabas3/socialconnect/internal/metrics"
	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
	"github.com/dropDatabas3/socialconnect/internal/tokenstore"
)

// State es el estado de la máquina por proveedor.
type State string

const (
	StateRedirecting         State = "redirecting"
	StateProviderAuthPending State = "provider_auth_pending"
	StateCallbackReceived    State = "callback_received"
	StateTokenIssued         State = "token_issued"
	StateAuthFailed          State = "auth_failed"
)

// DefaultSessionTTL es la vida de una AuthSession (una ventana de autorización).
const DefaultSessionTTL = 10 * time.Minute

const sessionPrefix = "authsession:"

var (
	ErrUnknownProvider = errors.New("handshake: provider unknown or disabled")
	ErrInvalidState    = errors.New("handshake: state missing, expired or already used")
	ErrProviderDenied  = errors.New("handshake: provider denied authorization")
	ErrMissingCode     = errors.New("handshake: code required")
)

// AuthSession vive solo mientras dura una ventana de autorización.
type AuthSession struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	State     string    `json:"state"`
	Verifier  string    `json:"verifier,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Outcome es el resultado de un callback. Platform se completa siempre, incluso en
// error, para que el controller pueda notificar a la ventana que abrió el popup.
type Outcome struct {
	Platform string
	Token    string
	Claims   *jwt.Claims
	Subject  identity.Subject
}

// Service es el contrato del AuthServer.
type Service interface {
	// Start devuelve la URL de autorización del proveedor.
	Start(ctx context.Context, provider string) (string, error)
	// Callback procesa la respuesta del proveedor (query del redirect).
	Callback(ctx context.Context, provider string, q url.Values) (Outcome, error)
	// Fail registra un fallo reportado por el proveedor fuera del callback.
	Fail(ctx context.Context, provider string) Outcome
}

// Deps contiene las dependencias del servicio. Bus es opcional.
type Deps struct {
	Providers  *providers.Registry
	Sessions   cache.Client
	Subjects   identity.Store
	Signer     *jwt.Signer
	Bus        events.Bus
	SessionTTL time.Duration
	Now        func() time.Time
	// Sealer cifra el AuthSession (incluye el verifier PKCE) antes de guardarlo. Opcional.
	Sealer Sealer
}

// Sealer cifra y descifra el payload guardado en cache; ver internal/security/secretbox.
type Sealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

type service struct {
	providers *providers.Registry
	sessions  cache.Client
	subjects  identity.Store
	signer    *jwt.Signer
	bus       events.Bus
	ttl       time.Duration
	now       func() time.Time
	sealer    Sealer
}

// NewService valida las dependencias obligatorias.
func NewService(d Deps) (Service, error) {
	switch {
	case d.Providers == nil:
		return nil, errors.New("handshake: providers registry required")
	case d.Sessions == nil:
		return nil, errors.New("handshake: session cache required")
	case d.Subjects == nil:
		return nil, errors.New("handshake: identity store required")
	case d.Signer == nil:
		return nil, errors.New("handshake: signer required")
	}
	s := &service{
		providers: d.Providers,
		sessions:  d.Sessions,
		subjects:  d.Subjects,
		signer:    d.Signer,
		bus:       d.Bus,
		ttl:       d.SessionTTL,
		now:       d.Now,
		sealer:    d.Sealer,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *service) Start(ctx context.Context, provider string) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("handshake"), logger.Provider(provider))

	p, ok := s.providers.Get(provider)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	s.transition(ctx, provider, StateRedirecting)

	sess := AuthSession{
		ID:        uuid.NewString(),
		Provider:  provider,
		State:     uuid.NewString(),
		CreatedAt: s.now().UTC(),
	}
	if p.UsesPKCE() {
		sess.Verifier = oauth2.GenerateVerifier()
	}
	raw, err := s.encodeSession(sess)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Set(ctx, sessionPrefix+sess.State, raw, s.ttl); err != nil {
		log.Error("auth session store failed", logger.Err(err))
		return "", fmt.Errorf("handshake: store session: %w", err)
	}

	s.transition(ctx, provider, StateProviderAuthPending, logger.SessionID(sess.ID))
	return p.Initiate(sess.State, sess.Verifier), nil
}

func (s *service) Callback(ctx context.Context, provider string, q url.Values) (Outcome, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("handshake"), logger.Provider(provider))
	out := Outcome{Platform: tokenstore.NormalizeKey(provider)}

	p, ok := s.providers.Get(provider)
	if !ok {
		return s.failed(ctx, provider, out, fmt.Errorf("%w: %s", ErrUnknownProvider, provider))
	}
	out.Platform = p.Key()
	s.transition(ctx, provider, StateCallbackReceived)

	// La sesión se consume siempre, gane o pierda el callback.
	sess, err := s.takeSession(ctx, strings.TrimSpace(q.Get("state")))
	if err != nil {
		return s.failed(ctx, provider, out, err)
	}
	if sess.Provider != provider {
		return s.failed(ctx, provider, out, fmt.Errorf("%w: provider mismatch", ErrInvalidState))
	}

	if idpErr := strings.TrimSpace(q.Get("error")); idpErr != "" {
		log.Warn("provider denied authorization",
			logger.String("error", idpErr),
			logger.String("description", q.Get("error_description")))
		return s.failed(ctx, provider, out, fmt.Errorf("%w: %s", ErrProviderDenied, idpErr))
	}
	code := strings.TrimSpace(q.Get("code"))
	if code == "" {
		return s.failed(ctx, provider, out, ErrMissingCode)
	}

	prof, err := p.HandleCallback(ctx, code, sess.Verifier)
	if err != nil {
		return s.failed(ctx, provider, out, err)
	}

	sub, err := s.subjects.Upsert(ctx, identity.Subject{
		Provider:     p.Key(),
		ProfileID:    prof.ID,
		DisplayName:  prof.DisplayName,
		AccessToken:  prof.AccessToken,
		RefreshToken: prof.RefreshToken,
		TokenExpiry:  prof.Expiry,
	})
	if err != nil {
		return s.failed(ctx, provider, out, fmt.Errorf("handshake: upsert subject: %w", err))
	}

	token, claims, err := s.signer.Issue(jwt.Identity{ID: sub.ID, DisplayName: sub.DisplayName, Provider: sub.Provider})
	if err != nil {
		return s.failed(ctx, provider, out, fmt.Errorf("handshake: issue token: %w", err))
	}
	out.Token, out.Claims, out.Subject = token, claims, sub

	s.transition(ctx, provider, StateTokenIssued, logger.SubjectID(sub.ID))
	s.publish(ctx, events.Success(out.Platform, token))
	return out, nil
}

func (s *service) Fail(ctx context.Context, provider string) Outcome {
	out := Outcome{Platform: tokenstore.NormalizeKey(provider)}
	if p, ok := s.providers.Get(provider); ok {
		out.Platform = p.Key()
	}
	out, _ = s.failed(ctx, provider, out, ErrProviderDenied)
	return out
}

func (s *service) takeSession(ctx context.Context, state string) (AuthSession, error) {
	if state == "" {
		return AuthSession{}, ErrInvalidState
	}
	raw, err := s.sessions.Take(ctx, sessionPrefix+state)
	if err != nil {
		if cache.IsNotFound(err) {
			return AuthSession{}, ErrInvalidState
		}
		return AuthSession{}, fmt.Errorf("handshake: load session: %w", err)
	}
	if s.sealer != nil {
		if raw, err = s.sealer.Open(raw); err != nil {
			return AuthSession{}, fmt.Errorf("%w: unreadable session", ErrInvalidState)
		}
	}
	var sess AuthSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return AuthSession{}, fmt.Errorf("%w: corrupt session", ErrInvalidState)
	}
	return sess, nil
}

func (s *service) encodeSession(sess AuthSession) (string, error) {
	b, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	if s.sealer == nil {
		return string(b), nil
	}
	return s.sealer.Seal(string(b))
}

func (s *service) failed(ctx context.Context, provider string, out Outcome, cause error) (Outcome, error) {
	s.transition(ctx, provider, StateAuthFailed, logger.Err(cause))
	s.publish(ctx, events.Failure(out.Platform))
	return out, cause
}

func (s *service) transition(ctx context.Context, provider string, st State, fields ...zap.Field) {
	metrics.HandshakeTransitions.WithLabelValues(provider, string(st)).Inc()
	fields = append(fields, logger.Provider(provider), logger.State(string(st)))
	logger.From(ctx).Debug("handshake transition", fields...)
}

func (s *service) publish(ctx context.Context, m events.Message) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, m); err != nil {
		logger.From(ctx).Warn("completion publish failed", logger.Platform(m.Platform), logger.Err(err))
	}
}
