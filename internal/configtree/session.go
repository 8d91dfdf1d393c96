package configtree

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/socialconnect/internal/util/atomicwrite"
)

// Session mantiene el árbol vigente. Cada escritura reemplaza la raíz completa;
// los lectores que guardaron un *AppConfig anterior nunca ven cambios.
type Session struct {
	mu       sync.RWMutex
	cfg      *AppConfig
	snapshot string // path JSON opcional
}

// NewSession crea una sesión desde un seed. seed nil => árbol vacío.
func NewSession(seed *AppConfig) *Session {
	if seed == nil {
		seed = Empty()
	}
	return &Session{cfg: seed}
}

// WithSnapshot hace que cada escritura persista el árbol en path (JSON, escritura atómica).
func (s *Session) WithSnapshot(path string) *Session {
	s.mu.Lock()
	s.snapshot = path
	s.mu.Unlock()
	return s
}

// Current devuelve la raíz vigente. No debe mutarse.
func (s *Session) Current() *AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Apply ejecuta fn sobre la raíz vigente y la reemplaza con el resultado.
// Si fn falla el árbol no cambia. Con snapshot, la base es lo último en disco:
// otro proceso pudo escribirlo desde que esta sesión lo leyó.
func (s *Session) Apply(fn func(*AppConfig) (*AppConfig, error)) (*AppConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot != "" {
		disk, err := LoadSnapshot(s.snapshot)
		if err != nil {
			return s.cfg, err
		}
		if disk != nil {
			s.cfg = disk
		}
	}

	next, err := fn(s.cfg)
	if err != nil {
		return s.cfg, err
	}
	if s.snapshot != "" {
		if err := writeSnapshot(s.snapshot, next); err != nil {
			return s.cfg, err
		}
	}
	s.cfg = next
	return next, nil
}

// Update es Apply(cfg.Update(path, value)).
func (s *Session) Update(path []string, value string) (*AppConfig, error) {
	return s.Apply(func(c *AppConfig) (*AppConfig, error) { return c.Update(path, value) })
}

// LoadSeed lee el seed estático (YAML) con el que arranca la sesión.
func LoadSeed(path string) (*AppConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c AppConfig
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("configtree: parse seed: %w", err)
	}
	normalize(&c)
	return &c, nil
}

// LoadSnapshot lee un snapshot JSON. Si no existe devuelve (nil, nil).
func LoadSnapshot(path string) (*AppConfig, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var c AppConfig
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("configtree: parse snapshot: %w", err)
	}
	normalize(&c)
	return &c, nil
}

func writeSnapshot(path string, c *AppConfig) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return atomicwrite.AtomicWriteFile(path, b, 0o600)
}

// normalize completa stages faltantes: una plataforma configurada siempre tiene dev y live.
func normalize(c *AppConfig) {
	if c.Users == nil {
		c.Users = map[string]UserConfig{}
	}
	for un, u := range c.Users {
		if u.Brands == nil {
			u.Brands = map[string]BrandConfig{}
		}
		for bn, b := range u.Brands {
			if b.Platforms == nil {
				b.Platforms = map[Platform]PlatformConfig{}
			}
			for p, pc := range b.Platforms {
				pc.Dev = fillEnv(p, pc.Dev)
				pc.Live = fillEnv(p, pc.Live)
				b.Platforms[p] = pc
			}
			u.Brands[bn] = b
		}
		c.Users[un] = u
	}
}

func fillEnv(p Platform, env PlatformEnvironmentConfig) PlatformEnvironmentConfig {
	base := newEnv(p)
	for k, v := range env.Credentials {
		base.Credentials[k] = v
	}
	for k, v := range env.Tokens {
		base.Tokens[k] = v
	}
	base.OAuth = env.OAuth
	return base
}
