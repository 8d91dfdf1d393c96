package events

import (
	"context"
	"sync"
)

// Hub es el Bus en proceso.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]Handler
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]Handler)}
}

// Publish entrega m a todos los suscriptores vigentes, en la goroutine del llamador.
func (h *Hub) Publish(_ context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	h.mu.RLock()
	handlers := make([]Handler, 0, len(h.subs))
	for _, fn := range h.subs {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn(m)
	}
	return nil
}

func (h *Hub) Subscribe(fn Handler) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Len devuelve la cantidad de suscriptores registrados.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
