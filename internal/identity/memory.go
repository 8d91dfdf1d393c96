package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore es el record store en proceso (single writer bajo mutex).
type MemoryStore struct {
	mu   sync.Mutex
	now  func() time.Time
	subs map[string]Subject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, subs: make(map[string]Subject)}
}

func (m *MemoryStore) Upsert(_ context.Context, s Subject) (Subject, error) {
	s, err := prepare(s)
	if err != nil {
		return Subject{}, err
	}
	now := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.subs[s.ID]
	if !ok {
		s.CreatedAt = now
		s.LastLoginAt = now
		m.subs[s.ID] = s
		return s, nil
	}

	cur.AccessToken = s.AccessToken
	cur.RefreshToken = s.RefreshToken
	cur.TokenExpiry = s.TokenExpiry
	if s.DisplayName != "" {
		cur.DisplayName = s.DisplayName
	}
	cur.LastLoginAt = now
	m.subs[s.ID] = cur
	return cur, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return Subject{}, ErrNotFound
	}
	return s, nil
}

// Len devuelve la cantidad de registros.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}
