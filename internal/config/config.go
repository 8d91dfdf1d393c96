// Package config carga la configuración del servidor: YAML opcional + .env +
// variables de entorno (las variables pisan al YAML).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ProviderCredentials es un par client id/secret. Vacío => proveedor deshabilitado.
type ProviderCredentials struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

// Enabled indica si el proveedor tiene credenciales completas.
func (p ProviderCredentials) Enabled() bool {
	return strings.TrimSpace(p.ClientID) != "" && strings.TrimSpace(p.ClientSecret) != ""
}

// providerEnv son las variables de entorno de los proveedores (caarlos0/env).
type providerEnv struct {
	FacebookID     string   `env:"FACEBOOK_CLIENT_ID"`
	FacebookSecret string   `env:"FACEBOOK_CLIENT_SECRET"`
	FacebookScopes []string `env:"FACEBOOK_SCOPES" envSeparator:","`
	TwitterID      string   `env:"TWITTER_CLIENT_ID"`
	TwitterSecret  string   `env:"TWITTER_CLIENT_SECRET"`
	TwitterScopes  []string `env:"TWITTER_SCOPES" envSeparator:","`
	LinkedInID     string   `env:"LINKEDIN_CLIENT_ID"`
	LinkedInSecret string   `env:"LINKEDIN_CLIENT_SECRET"`
	LinkedInScopes []string `env:"LINKEDIN_SCOPES" envSeparator:","`
	TikTokID       string   `env:"TIKTOK_CLIENT_ID"`
	TikTokKey      string   `env:"TIKTOK_CLIENT_KEY"` // nombre de TikTok; gana sobre TIKTOK_CLIENT_ID
	TikTokSecret   string   `env:"TIKTOK_CLIENT_SECRET"`
	TikTokScopes   []string `env:"TIKTOK_SCOPES" envSeparator:","`
}

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"app_env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		PublicURL          string   `yaml:"public_url"` // base para los callbacks
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		ShutdownTimeout    string   `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Auth struct {
		SessionSecret      string `yaml:"session_secret"` // cifra los AuthSession en cache; vacío => en claro
		TokenSigningSecret string `yaml:"token_signing_secret"`
		TokenTTL           string `yaml:"token_ttl"`   // solo "1h"; otro valor es error
		SessionTTL         string `yaml:"session_ttl"` // vida de un AuthSession (ventana abierta)
	} `yaml:"auth"`

	Redis struct {
		Addr    string `yaml:"addr"`
		DB      int    `yaml:"db"`
		Prefix  string `yaml:"prefix"`
		Channel string `yaml:"channel"`
	} `yaml:"redis"`

	Database struct {
		URL string `yaml:"url"` // postgres; vacío => store en memoria
	} `yaml:"database"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`

	Providers struct {
		Facebook ProviderCredentials `yaml:"facebook"`
		Twitter  ProviderCredentials `yaml:"twitter"`
		LinkedIn ProviderCredentials `yaml:"linkedin"`
		TikTok   ProviderCredentials `yaml:"tiktok"`
	} `yaml:"providers"`
}

// Load lee path (puede no existir), aplica env y defaults, y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := c.applyEnvOverrides(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.PublicURL == "" {
		host := c.Server.Addr
		if strings.HasPrefix(host, ":") {
			host = "localhost" + host
		}
		c.Server.PublicURL = "http://" + host
	}
	c.Server.PublicURL = strings.TrimRight(c.Server.PublicURL, "/")
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Auth.TokenTTL == "" {
		c.Auth.TokenTTL = "1h"
	}
	if c.Auth.SessionTTL == "" {
		c.Auth.SessionTTL = "10m"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "socialconnect"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 30
	}

	// Scopes fijos por proveedor en el servidor; el cliente no los elige.
	if len(c.Providers.Facebook.Scopes) == 0 {
		c.Providers.Facebook.Scopes = []string{"public_profile", "pages_show_list", "pages_manage_posts", "pages_read_engagement", "publish_video"}
	}
	if len(c.Providers.Twitter.Scopes) == 0 {
		c.Providers.Twitter.Scopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access"}
	}
	if len(c.Providers.LinkedIn.Scopes) == 0 {
		c.Providers.LinkedIn.Scopes = []string{"openid", "profile", "w_member_social"}
	}
	if len(c.Providers.TikTok.Scopes) == 0 {
		c.Providers.TikTok.Scopes = []string{"user.info.basic", "video.upload"}
	}
}

// SignedTokenTTL es la única vida aceptada para auth.token_ttl.
const SignedTokenTTL = time.Hour

// Validate exige el secreto de firma y duraciones parseables.
// Los proveedores sin credenciales NO son error: solo quedan deshabilitados.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.TokenSigningSecret) == "" {
		return errors.New("config: TOKEN_SIGNING_SECRET is required")
	}
	for name, v := range map[string]string{
		"auth.token_ttl":          c.Auth.TokenTTL,
		"auth.session_ttl":        c.Auth.SessionTTL,
		"rate.window":             c.Rate.Window,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	if d := mustDur(c.Auth.TokenTTL); d != SignedTokenTTL {
		return fmt.Errorf("config: auth.token_ttl must be %s, got %s", SignedTokenTTL, d)
	}
	return nil
}

// Durations ya validadas por Load.
func (c *Config) TokenTTL() time.Duration        { return mustDur(c.Auth.TokenTTL) }
func (c *Config) SessionTTL() time.Duration      { return mustDur(c.Auth.SessionTTL) }
func (c *Config) RateWindow() time.Duration      { return mustDur(c.Rate.Window) }
func (c *Config) ShutdownTimeout() time.Duration { return mustDur(c.Server.ShutdownTimeout) }

func mustDur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(s); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() error {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}

	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("PORT"); ok {
		c.Server.Addr = ":" + v
	}
	if v, ok := getEnvStr("PUBLIC_URL"); ok {
		c.Server.PublicURL = v
	}
	if v, ok := getEnvCSV("CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	if v, ok := getEnvStr("SESSION_SECRET"); ok {
		c.Auth.SessionSecret = v
	}
	if v, ok := getEnvStr("TOKEN_SIGNING_SECRET"); ok {
		c.Auth.TokenSigningSecret = v
	}

	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Database.URL = v
	}

	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}

	var pe providerEnv
	if err := env.Parse(&pe); err != nil {
		return fmt.Errorf("config: provider env: %w", err)
	}
	overridePair(&c.Providers.Facebook, pe.FacebookID, pe.FacebookSecret, pe.FacebookScopes)
	overridePair(&c.Providers.Twitter, pe.TwitterID, pe.TwitterSecret, pe.TwitterScopes)
	overridePair(&c.Providers.LinkedIn, pe.LinkedInID, pe.LinkedInSecret, pe.LinkedInScopes)
	tiktokID := pe.TikTokKey
	if tiktokID == "" {
		tiktokID = pe.TikTokID
	}
	overridePair(&c.Providers.TikTok, tiktokID, pe.TikTokSecret, pe.TikTokScopes)
	return nil
}

func overridePair(dst *ProviderCredentials, id, secret string, scopes []string) {
	if id != "" {
		dst.ClientID = id
	}
	if secret != "" {
		dst.ClientSecret = secret
	}
	if len(scopes) > 0 {
		dst.Scopes = scopes
	}
}
