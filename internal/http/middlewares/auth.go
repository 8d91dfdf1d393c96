package middlewares

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/socialconnect/internal/http/errors"
	"github.com/dropDatabas3/socialconnect/internal/jwt"
	"github.com/dropDatabas3/socialconnect/internal/metrics"
	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
)

// TokenVerifier verifica un SignedToken. *jwt.Signer lo implementa.
type TokenVerifier interface {
	Parse(raw string) (*jwt.Claims, error)
}

// RequireToken valida Authorization: Bearer <token>.
// Sin header (o sin esquema Bearer) => 401; firma inválida o vencido => 403.
// No hace llamadas de red.
func RequireToken(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := bearerToken(r)
			if !ok {
				metrics.TokenGateRejections.WithLabelValues("missing").Inc()
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				httperrors.WriteErrorCtx(ctx, w, httperrors.ErrUnauthenticated)
				return
			}

			claims, err := v.Parse(raw)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, jwt.ErrTokenExpired) {
					reason = "expired"
				}
				metrics.TokenGateRejections.WithLabelValues(reason).Inc()
				logger.From(ctx).Debug("token rejected", logger.String("reason", reason), logger.Err(err))
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				httperrors.WriteErrorCtx(ctx, w, httperrors.ErrForbidden.WithDetail(reason+" token"))
				return
			}

			ctx = WithSubject(ctx, SubjectClaims{ID: claims.ID, DisplayName: claims.DisplayName, Provider: claims.Provider})
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.SubjectID(claims.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireProvider exige que el sujeto venga del proveedor dado. Usar después de RequireToken.
func RequireProvider(provider string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := GetSubject(r.Context())
			if !ok {
				httperrors.WriteErrorCtx(r.Context(), w, httperrors.ErrUnauthenticated)
				return
			}
			if s.Provider != provider {
				metrics.TokenGateRejections.WithLabelValues("provider_mismatch").Inc()
				httperrors.WriteErrorCtx(r.Context(), w, httperrors.ErrProviderMismatch.WithDetail("route requires "+provider))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(ah) < len("Bearer ") || !strings.EqualFold(ah[:len("Bearer ")], "bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(ah[len("Bearer "):])
	return raw, raw != ""
}
