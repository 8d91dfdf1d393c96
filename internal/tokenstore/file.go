package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dropDatabas3/socialconnect/internal/util/atomicwrite"
)

// FileStore persiste los tokens en un JSON {clave: token}. Sobrevive reinicios del
// proceso, el equivalente a recargar la página en el cliente web.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Get(_ context.Context, provider string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := m[NormalizeKey(provider)]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FileStore) Set(_ context.Context, provider, token string) error {
	return f.mutate(func(m map[string]string) { m[NormalizeKey(provider)] = token })
}

func (f *FileStore) Delete(_ context.Context, provider string) error {
	return f.mutate(func(m map[string]string) { delete(m, NormalizeKey(provider)) })
}

func (f *FileStore) mutate(fn func(map[string]string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.load()
	if err != nil {
		return err
	}
	fn(m)
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return atomicwrite.AtomicWriteFile(f.path, b, 0o600)
}

func (f *FileStore) load() (map[string]string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tokenstore: read %s: %w", f.path, err)
	}
	m := map[string]string{}
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("tokenstore: parse %s: %w", f.path, err)
	}
	return m, nil
}
