package middlewares

import "context"

type ctxKey string

const (
	ctxSubjectKey   ctxKey = "subject"
	ctxRequestIDKey ctxKey = "request_id"
)

// SubjectClaims es el sujeto decodificado del SignedToken.
type SubjectClaims struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Provider    string `json:"provider"`
}

// WithSubject inyecta el sujeto autenticado en el contexto.
func WithSubject(ctx context.Context, s SubjectClaims) context.Context {
	return context.WithValue(ctx, ctxSubjectKey, s)
}

// GetSubject obtiene el sujeto del contexto. ok=false si RequireToken no corrió.
func GetSubject(ctx context.Context) (SubjectClaims, bool) {
	s, ok := ctx.Value(ctxSubjectKey).(SubjectClaims)
	return s, ok
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}
