// Package tokenstore persiste un bearer token por proveedor, indexado por una clave
// normalizada. Se inyecta en el coordinador y en la validación; no hay estado global.
package tokenstore

import (
	"context"
	"errors"
	"strings"
)

// Sentinel es el valor que queda en el ConfigTree cuando el token real vive acá.
const Sentinel = "stored-in-tokenstore"

// ErrNotFound indica que no hay token para la clave.
var ErrNotFound = errors.New("tokenstore: token not found")

// Store guarda un token por proveedor.
type Store interface {
	Get(ctx context.Context, provider string) (string, error)
	Set(ctx context.Context, provider, token string) error
	Delete(ctx context.Context, provider string) error
}

// NormalizeKey reduce alias de proveedor a una clave estable:
// facebook/meta/instagram => meta, twitter/x => x; el resto se pasa a minúsculas.
func NormalizeKey(provider string) string {
	switch k := strings.ToLower(strings.TrimSpace(provider)); k {
	case "facebook", "meta", "instagram":
		return "meta"
	case "twitter", "x":
		return "x"
	default:
		return k
	}
}
