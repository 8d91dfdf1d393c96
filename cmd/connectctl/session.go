package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/socialconnect/internal/configtree"
	"github.com/dropDatabas3/socialconnect/internal/tokenstore"
)

// openSession arma la sesión: snapshot si existe, si no el seed, si no vacío.
// Toda escritura se persiste en el snapshot.
func openSession(g *globals) (*configtree.Session, error) {
	seed, err := configtree.LoadSnapshot(g.statePath)
	if err != nil {
		return nil, err
	}
	if seed == nil && g.seedPath != "" {
		if seed, err = configtree.LoadSeed(g.seedPath); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(g.statePath), 0o700); err != nil {
		return nil, err
	}
	return configtree.NewSession(seed).WithSnapshot(g.statePath), nil
}

// openTokens elige el token store: Redis si hay, si no archivo local.
func openTokens(g *globals, rdb *redis.Client) (tokenstore.Store, error) {
	if rdb != nil {
		return tokenstore.NewRedisStore(rdb, g.prefix+":tokens"), nil
	}
	if err := os.MkdirAll(filepath.Dir(g.tokensPath), 0o700); err != nil {
		return nil, err
	}
	return tokenstore.NewFileStore(g.tokensPath), nil
}

func openRedis(g *globals) *redis.Client {
	if g.redisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: g.redisAddr, DB: g.redisDB})
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
