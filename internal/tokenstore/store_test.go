package tokenstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"facebook":  "meta",
		"Meta":      "meta",
		"instagram": "meta",
		"twitter":   "x",
		" X ":       "x",
		"LinkedIn":  "linkedin",
		"tiktok":    "tiktok",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}

// exerciseStore corre el mismo contrato contra cada implementación.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "twitter", "tok-1"))
	got, err := s.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, s.Set(ctx, "X", "tok-2"))
	got, err = s.Get(ctx, "twitter")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got)

	require.NoError(t, s.Set(ctx, "facebook", "fb"))
	require.NoError(t, s.Delete(ctx, "x"))
	_, err = s.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = s.Get(ctx, "meta")
	require.NoError(t, err)
	assert.Equal(t, "fb", got)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, NewFileStore(filepath.Join(t.TempDir(), "tokens.json")))
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, NewFileStore(path).Set(context.Background(), "linkedin", "li"))

	got, err := NewFileStore(path).Get(context.Background(), "LinkedIn")
	require.NoError(t, err)
	assert.Equal(t, "li", got)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseStore(t, NewRedisStore(client, "test"))
	assert.True(t, mr.Exists("test:meta"))
}
