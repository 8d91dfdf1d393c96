// Package secretbox cifra valores cortos (tokens) para guardarlos en reposo.
// Formato: base64(nonce)|base64(ciphertext), XChaCha20-Poly1305.
package secretbox

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	keyLength = chacha20poly1305.KeySize
	sep       = "|"
	hkdfInfo  = "socialconnect/secretbox/v1"
)

var (
	ErrNoKey     = errors.New("secretbox: empty key")
	ErrMalformed = errors.New("secretbox: malformed sealed value")
)

// Box sella y abre valores con una clave fija.
type Box struct {
	aead cipher.AEAD
}

// New acepta una clave de 32 bytes en base64 o hex. Cualquier otro valor se trata como
// passphrase y se deriva con HKDF-SHA256.
func New(secret string) (*Box, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrNoKey
	}
	key, err := decodeKey(secret)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: %w", err)
	}
	return &Box{aead: aead}, nil
}

func decodeKey(secret string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(secret); err == nil && len(b) == keyLength {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(secret); err == nil && len(b) == keyLength {
		return b, nil
	}
	if len(secret) == 2*keyLength {
		if b, err := hex.DecodeString(secret); err == nil {
			return b, nil
		}
	}
	key := make([]byte, keyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("secretbox: derive key: %w", err)
	}
	return key, nil
}

// Seal cifra plain con un nonce aleatorio.
func (b *Box) Seal(plain string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Open descifra un valor producido por Seal. Falla si fue alterado o la clave no coincide.
func (b *Box) Open(sealed string) (string, error) {
	nonceB64, ctB64, ok := strings.Cut(sealed, sep)
	if !ok {
		return "", ErrMalformed
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil || len(nonce) != b.aead.NonceSize() {
		return "", ErrMalformed
	}
	ct, err := base64.StdEncoding.DecodeString(ctB64)
	if err != nil {
		return "", ErrMalformed
	}
	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("secretbox: open: %w", err)
	}
	return string(pt), nil
}
