package tokenstore

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore guarda tokens en proceso (sin expiración). Útil para tests y el modo embebido.
type MemoryStore struct {
	c *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, 0)}
}

func (m *MemoryStore) Get(_ context.Context, provider string) (string, error) {
	v, ok := m.c.Get(NormalizeKey(provider))
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (m *MemoryStore) Set(_ context.Context, provider, token string) error {
	m.c.Set(NormalizeKey(provider), token, gocache.NoExpiration)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, provider string) error {
	m.c.Delete(NormalizeKey(provider))
	return nil
}
