package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(d time.Duration) zap.Field {
	return zap.Int64("duration_ms", d.Milliseconds())
}

// =================================================================================
// CAMPOS ESTÁNDAR - DOMINIO
// =================================================================================

// Provider es la ruta del proveedor OAuth (facebook, twitter, linkedin, tiktok).
func Provider(v string) zap.Field { return zap.String("provider", v) }

// Platform es la plataforma del ConfigTree (meta, instagram, x, ...).
func Platform(v string) zap.Field { return zap.String("platform", v) }

// Stage es dev | live.
func Stage(v string) zap.Field { return zap.String("stage", v) }

func User(v string) zap.Field      { return zap.String("user", v) }
func Brand(v string) zap.Field     { return zap.String("brand", v) }
func SubjectID(v string) zap.Field { return zap.String("subject_id", v) }
func SessionID(v string) zap.Field { return zap.String("session_id", v) }

// State es el estado del handshake en el servidor.
func State(v string) zap.Field { return zap.String("handshake_state", v) }

// Check es el nombre de un check de validación.
func Check(v string) zap.Field { return zap.String("check", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }

func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
