// Package configtree contiene el árbol de configuración por usuario/marca/plataforma/stage
// y sus operaciones de escritura inmutables.
//
// Toda escritura devuelve un *AppConfig nuevo: solo se reconstruyen los nodos del path
// modificado, los hermanos se comparten y se tratan como solo-lectura.
package configtree

import (
	"fmt"
	"strings"
	"time"
)

// Platform es uno de los proveedores soportados.
type Platform string

const (
	PlatformMeta      Platform = "meta"
	PlatformInstagram Platform = "instagram"
	PlatformX         Platform = "x"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTikTok    Platform = "tiktok"
	PlatformPinterest Platform = "pinterest"
)

// Platforms lista el set fijo en orden de presentación.
var Platforms = []Platform{
	PlatformMeta, PlatformInstagram, PlatformX, PlatformLinkedIn, PlatformTikTok, PlatformPinterest,
}

// ParsePlatform acepta el nombre canónico o el de display ("Facebook", "Twitter", "LinkedIn").
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "meta", "facebook":
		return PlatformMeta, nil
	case "instagram":
		return PlatformInstagram, nil
	case "x", "twitter":
		return PlatformX, nil
	case "linkedin":
		return PlatformLinkedIn, nil
	case "tiktok":
		return PlatformTikTok, nil
	case "pinterest":
		return PlatformPinterest, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// Stage es el entorno de credenciales.
type Stage string

const (
	StageDev  Stage = "dev"
	StageLive Stage = "live"
)

// ParseStage valida dev|live.
func ParseStage(s string) (Stage, error) {
	switch Stage(strings.ToLower(strings.TrimSpace(s))) {
	case StageDev:
		return StageDev, nil
	case StageLive:
		return StageLive, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, s)
}

// Selection es el puntero al contexto activo. Puede apuntar a algo que no existe.
type Selection struct {
	User     string   `json:"user" yaml:"user"`
	Brand    string   `json:"brand" yaml:"brand"`
	Platform Platform `json:"platform" yaml:"platform"`
}

// AppConfig es la raíz del árbol. Una instancia por sesión.
type AppConfig struct {
	LastSaved        time.Time             `json:"lastSaved" yaml:"lastSaved"`
	CurrentSelection Selection             `json:"currentSelection" yaml:"currentSelection"`
	Users            map[string]UserConfig `json:"users" yaml:"users"`
}

type UserConfig struct {
	Brands map[string]BrandConfig `json:"brands" yaml:"brands"`
}

type BrandConfig struct {
	Details   BrandDetails                `json:"details" yaml:"details"`
	Platforms map[Platform]PlatformConfig `json:"platforms" yaml:"platforms"`
}

type BrandDetails struct {
	Name            string          `json:"name" yaml:"name"`
	LogoURL         string          `json:"logoUrl" yaml:"logoUrl"`
	Description     string          `json:"description" yaml:"description"`
	PostingDefaults PostingDefaults `json:"postingDefaults" yaml:"postingDefaults"`
}

// PostingDefaults. DefaultAccounts tiene semántica de set (sin duplicados, orden de alta).
type PostingDefaults struct {
	MandatoryHashtags string   `json:"mandatoryHashtags" yaml:"mandatoryHashtags"`
	DefaultAccounts   []string `json:"defaultAccounts" yaml:"defaultAccounts"`
}

// PlatformConfig siempre tiene ambos stages.
type PlatformConfig struct {
	Dev  PlatformEnvironmentConfig `json:"dev" yaml:"dev"`
	Live PlatformEnvironmentConfig `json:"live" yaml:"live"`
}

// Env devuelve la config del stage.
func (p PlatformConfig) Env(stage Stage) PlatformEnvironmentConfig {
	if stage == StageLive {
		return p.Live
	}
	return p.Dev
}

func (p PlatformConfig) withEnv(stage Stage, env PlatformEnvironmentConfig) PlatformConfig {
	if stage == StageLive {
		p.Live = env
	} else {
		p.Dev = env
	}
	return p
}

type PlatformEnvironmentConfig struct {
	Credentials map[string]string `json:"credentials" yaml:"credentials"`
	Tokens      map[string]string `json:"tokens" yaml:"tokens"`
	OAuth       OAuthConfig       `json:"oauth" yaml:"oauth"`
}

// OAuthConfig. Scopes es una lista separada por comas.
type OAuthConfig struct {
	RedirectURI string `json:"redirect_uri" yaml:"redirect_uri"`
	Scopes      string `json:"scopes" yaml:"scopes"`
}

// Credential devuelve el valor trimmeado de un campo.
func (e PlatformEnvironmentConfig) Credential(field string) string {
	return strings.TrimSpace(e.Credentials[field])
}

// Token devuelve el valor trimmeado de un rol de token.
func (e PlatformEnvironmentConfig) Token(role string) string {
	return strings.TrimSpace(e.Tokens[role])
}

// CredentialFields devuelve la forma de credenciales de cada proveedor.
// Meta e Instagram comparten forma (y por convención la misma Meta App).
func CredentialFields(p Platform) []string {
	switch p {
	case PlatformMeta, PlatformInstagram:
		return []string{"app_id", "app_secret", "page_id", "group_id"}
	case PlatformX:
		return []string{"consumer_key", "consumer_secret"}
	case PlatformLinkedIn:
		return []string{"client_id", "client_secret"}
	case PlatformTikTok:
		return []string{"client_key", "client_secret"}
	case PlatformPinterest:
		return []string{"app_id", "app_secret"}
	}
	return nil
}

// IdentifierField es el campo que identifica la app ante el proveedor.
func IdentifierField(p Platform) string {
	switch p {
	case PlatformX:
		return "consumer_key"
	case PlatformLinkedIn:
		return "client_id"
	case PlatformTikTok:
		return "client_key"
	}
	return "app_id"
}

// TokenRoles lista los roles de token por proveedor.
func TokenRoles(p Platform) []string {
	switch p {
	case PlatformMeta, PlatformInstagram:
		return []string{"user", "page"}
	case PlatformX:
		return []string{"access_token", "access_token_secret"}
	}
	return []string{"user"}
}

// NewPlatformConfig crea una plataforma con ambos stages y los campos vacíos.
func NewPlatformConfig(p Platform) PlatformConfig {
	return PlatformConfig{Dev: newEnv(p), Live: newEnv(p)}
}

func newEnv(p Platform) PlatformEnvironmentConfig {
	env := PlatformEnvironmentConfig{
		Credentials: map[string]string{},
		Tokens:      map[string]string{},
	}
	for _, f := range CredentialFields(p) {
		env.Credentials[f] = ""
	}
	for _, r := range TokenRoles(p) {
		env.Tokens[r] = ""
	}
	return env
}

// Empty devuelve un árbol sin usuarios.
func Empty() *AppConfig {
	return &AppConfig{Users: map[string]UserConfig{}}
}
