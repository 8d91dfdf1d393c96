package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/socialconnect/internal/configtree"
	"github.com/dropDatabas3/socialconnect/internal/metrics"
	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
	"github.com/dropDatabas3/socialconnect/internal/tokenstore"
)

var (
	ErrMissingCredentials = errors.New("validation: app id, app secret and token are required")
	ErrTokenInvalid       = errors.New("validation: token reported unusable by provider")
	ErrNoIntrospector     = errors.New("validation: platform has no introspection endpoint")
	// ErrAppSessionToken: el centinela apunta al SignedToken de la app, no a un token del proveedor.
	ErrAppSessionToken = errors.New("validation: stored token is an app session token, not a provider token; validate through the server")
)

// AppCredentials son las credenciales de app para la introspección.
type AppCredentials struct {
	AppID     string
	AppSecret string
}

// TokenInfo es la respuesta de debug/introspección.
type TokenInfo struct {
	Valid     bool
	Scopes    []string
	ProfileID string
	ExpiresAt time.Time
	Reason    string
}

// Introspector consulta el endpoint de introspección de un proveedor (solo lectura).
type Introspector interface {
	DebugToken(ctx context.Context, app AppCredentials, token string) (TokenInfo, error)
	GrantedScopes(ctx context.Context, token string) ([]string, error)
}

// ScopeState: Granted | Missing.
type ScopeState string

const (
	Granted ScopeState = "Granted"
	Missing ScopeState = "Missing"
)

type ScopeStatus struct {
	Scope  string     `json:"scope"`
	Status ScopeState `json:"status"`
}

// CheckStatus de un check individual del reporte.
type CheckStatus string

const (
	CheckOK            CheckStatus = "ok"
	CheckFailed        CheckStatus = "failed"
	CheckNotApplicable CheckStatus = "not_applicable"
)

// Nombres de check.
const (
	CheckUserToken = "user_token"
	CheckPageToken = "page_token"
	CheckScopes    = "scopes"
)

type CheckResult struct {
	Name   string        `json:"name"`
	Status CheckStatus   `json:"status"`
	Error  string        `json:"error,omitempty"`
	Scopes []ScopeStatus `json:"scopes,omitempty"`
}

// Report agrega todos los checks; OK solo si ninguno falló explícitamente.
type Report struct {
	Platform configtree.Platform `json:"platform"`
	Stage    configtree.Stage    `json:"stage,omitempty"`
	OK       bool                `json:"ok"`
	Checks   []CheckResult       `json:"checks"`
}

// Service ejecuta los checks contra el introspector de cada plataforma.
type Service struct {
	introspectors map[configtree.Platform]Introspector
	tokens        tokenstore.Store
}

// NewService. tokens resuelve valores centinela del ConfigTree; puede ser nil.
func NewService(tokens tokenstore.Store, introspectors map[configtree.Platform]Introspector) *Service {
	return &Service{introspectors: introspectors, tokens: tokens}
}

// ForMeta arma el servicio con un MetaIntrospector para Meta e Instagram.
func ForMeta(tokens tokenstore.Store, meta Introspector) *Service {
	return NewService(tokens, map[configtree.Platform]Introspector{
		configtree.PlatformMeta:      meta,
		configtree.PlatformInstagram: meta,
	})
}

func (s *Service) introspector(p configtree.Platform) (Introspector, error) {
	if i, ok := s.introspectors[p]; ok && i != nil {
		return i, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoIntrospector, p)
}

// TokenValidity verifica que el token siga siendo usable.
func (s *Service) TokenValidity(ctx context.Context, p configtree.Platform, app AppCredentials, token string) error {
	_, err := s.tokenInfo(ctx, p, app, token)
	return err
}

func (s *Service) tokenInfo(ctx context.Context, p configtree.Platform, app AppCredentials, token string) (TokenInfo, error) {
	if strings.TrimSpace(app.AppID) == "" || strings.TrimSpace(app.AppSecret) == "" || strings.TrimSpace(token) == "" {
		return TokenInfo{}, ErrMissingCredentials
	}
	in, err := s.introspector(p)
	if err != nil {
		return TokenInfo{}, err
	}
	info, err := in.DebugToken(ctx, app, token)
	if err != nil {
		return TokenInfo{}, err
	}
	if !info.Valid {
		if info.Reason != "" {
			return info, fmt.Errorf("%w: %s", ErrTokenInvalid, info.Reason)
		}
		return info, ErrTokenInvalid
	}
	return info, nil
}

// ScopeCoverage devuelve un estado por scope requerido, en el orden de entrada.
func (s *Service) ScopeCoverage(ctx context.Context, p configtree.Platform, token, required string) ([]ScopeStatus, error) {
	want := ParseRequired(required)
	if len(want) == 0 {
		return []ScopeStatus{}, nil
	}
	in, err := s.introspector(p)
	if err != nil {
		return nil, err
	}
	granted, err := in.GrantedScopes(ctx, token)
	if err != nil {
		return nil, err
	}
	return Coverage(want, granted), nil
}

// ParseRequired: split por coma, trim, descarta vacíos y duplicados (primera aparición).
func ParseRequired(required string) []string {
	parts := strings.Split(required, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Coverage cruza requeridos contra otorgados.
func Coverage(required, granted []string) []ScopeStatus {
	set := make(map[string]struct{}, len(granted))
	for _, g := range granted {
		set[strings.TrimSpace(g)] = struct{}{}
	}
	out := make([]ScopeStatus, 0, len(required))
	for _, r := range required {
		st := Missing
		if _, ok := set[r]; ok {
			st = Granted
		}
		out = append(out, ScopeStatus{Scope: r, Status: st})
	}
	return out
}

// ValidateEnvironment corre los checks aplicables en paralelo.
// Un check sin sus datos (p.ej. page token sin page_id) es NotApplicable, no error.
func (s *Service) ValidateEnvironment(ctx context.Context, p configtree.Platform, stage configtree.Stage, env configtree.PlatformEnvironmentConfig) Report {
	log := logger.From(ctx).With(logger.Component("validation"), logger.Platform(string(p)), logger.Stage(string(stage)))

	app := AppCredentials{AppID: env.Credential("app_id"), AppSecret: env.Credential("app_secret")}
	userToken, skipUser := s.resolve(ctx, p, env.Token("user"))
	pageToken := env.Token("page")
	pageID := env.Credential("page_id")
	_, noIntrospector := s.introspector(p)

	results := make([]CheckResult, 3)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		results[0] = CheckResult{Name: CheckUserToken}
		switch {
		case noIntrospector != nil:
			results[0].Status = CheckNotApplicable
		case userToken == "":
			results[0].skip(skipUser)
		default:
			results[0].fromErr(s.TokenValidity(gctx, p, app, userToken))
		}
		return nil
	})
	g.Go(func() error {
		results[1] = CheckResult{Name: CheckPageToken}
		switch {
		case noIntrospector != nil || pageToken == "" || pageID == "":
			results[1].Status = CheckNotApplicable
		default:
			info, err := s.tokenInfo(gctx, p, app, pageToken)
			if err == nil && info.ProfileID != "" && info.ProfileID != pageID {
				err = fmt.Errorf("%w: token belongs to %s, not page %s", ErrTokenInvalid, info.ProfileID, pageID)
			}
			results[1].fromErr(err)
		}
		return nil
	})
	g.Go(func() error {
		results[2] = CheckResult{Name: CheckScopes}
		required := env.OAuth.Scopes
		switch {
		case noIntrospector != nil || len(ParseRequired(required)) == 0:
			results[2].Status = CheckNotApplicable
		case userToken == "":
			results[2].skip(skipUser)
		default:
			cov, err := s.ScopeCoverage(gctx, p, userToken, required)
			results[2].Scopes = cov
			if err == nil {
				for _, c := range cov {
					if c.Status == Missing {
						err = fmt.Errorf("missing scope %q", c.Scope)
						break
					}
				}
			}
			results[2].fromErr(err)
		}
		return nil
	})
	_ = g.Wait()

	rep := Report{Platform: p, Stage: stage, OK: true, Checks: results}
	for _, r := range results {
		metrics.ValidationChecks.WithLabelValues(r.Name, string(r.Status)).Inc()
		if r.Status == CheckFailed {
			rep.OK = false
			log.Info("validation check failed", logger.Check(r.Name), logger.String("reason", r.Error))
		}
	}
	return rep
}

func (r *CheckResult) fromErr(err error) {
	if err != nil {
		r.Status = CheckFailed
		r.Error = err.Error()
		return
	}
	r.Status = CheckOK
}

func (r *CheckResult) skip(reason error) {
	r.Status = CheckNotApplicable
	if reason != nil {
		r.Error = reason.Error()
	}
}

// resolve devuelve el token de usuario a mandar al proveedor. TokenStore solo guarda
// SignedTokens de la app, así que un centinela con valor guardado nunca se envía:
// queda NotApplicable con ErrAppSessionToken como motivo.
func (s *Service) resolve(ctx context.Context, p configtree.Platform, v string) (string, error) {
	if v != tokenstore.Sentinel {
		return v, nil
	}
	if s.tokens == nil {
		return "", nil
	}
	if _, err := s.tokens.Get(ctx, tokenstore.NormalizeKey(string(p))); err != nil {
		if !errors.Is(err, tokenstore.ErrNotFound) {
			logger.From(ctx).Warn("token store read failed", logger.Platform(string(p)), logger.Err(err))
		}
		return "", nil
	}
	return "", ErrAppSessionToken
}
