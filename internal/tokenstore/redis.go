package tokenstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore comparte los tokens entre procesos (CLI y servidor).
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore usa prefix + ":" + clave. prefix vacío => "tokens".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "tokens"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(provider string) string {
	return r.prefix + ":" + NormalizeKey(provider)
}

func (r *RedisStore) Get(ctx context.Context, provider string) (string, error) {
	v, err := r.client.Get(ctx, r.key(provider)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (r *RedisStore) Set(ctx context.Context, provider, token string) error {
	return r.client.Set(ctx, r.key(provider), token, 0).Err()
}

func (r *RedisStore) Delete(ctx context.Context, provider string) error {
	return r.client.Del(ctx, r.key(provider)).Err()
}
