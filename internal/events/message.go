// Package events transporta la señal de fin de handshake entre la ventana de
// autorización (servidor) y quien la abrió (coordinador).
//
// El destino es comodín: todo suscriptor recibe todos los mensajes y filtra.
package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tipos de mensaje.
const (
	TypeAuthSuccess = "auth-success"
	TypeAuthFailure = "auth-failure"
)

// Message es el schema {type, platform, token?}.
type Message struct {
	Type     string `json:"type"`
	Platform string `json:"platform"`
	Token    string `json:"token,omitempty"`
}

// Success construye un mensaje auth-success.
func Success(platform, token string) Message {
	return Message{Type: TypeAuthSuccess, Platform: platform, Token: token}
}

// Failure construye un mensaje auth-failure.
func Failure(platform string) Message {
	return Message{Type: TypeAuthFailure, Platform: platform}
}

// Validate rechaza tipos desconocidos y success sin token.
func (m Message) Validate() error {
	switch m.Type {
	case TypeAuthSuccess:
		if m.Token == "" {
			return fmt.Errorf("events: %s without token", m.Type)
		}
	case TypeAuthFailure:
	default:
		return fmt.Errorf("events: unknown type %q", m.Type)
	}
	if m.Platform == "" {
		return fmt.Errorf("events: missing platform")
	}
	return nil
}

// Encode serializa a JSON.
func (m Message) Encode() ([]byte, error) { return json.Marshal(m) }

// Decode parsea y valida un payload.
func Decode(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("events: decode: %w", err)
	}
	return m, m.Validate()
}

// Handler recibe mensajes. Debe ser rápido; no bloquear el bus.
type Handler func(Message)

// Bus publica y distribuye mensajes de fin de handshake.
type Bus interface {
	Publish(ctx context.Context, m Message) error
	// Subscribe registra h y devuelve la función que lo desregistra (idempotente).
	Subscribe(h Handler) (unsubscribe func())
}
