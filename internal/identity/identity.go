// Package identity guarda el registro local de cada sujeto autenticado vía proveedor,
// indexado por "{provider}:{profileId}".
package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("identity: subject not found")
	ErrInvalidSubject = errors.New("identity: provider and profile id required")
)

// Subject es el registro local de un login.
type Subject struct {
	ID           string
	Provider     string
	ProfileID    string
	DisplayName  string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	CreatedAt    time.Time
	LastLoginAt  time.Time
}

// SubjectID arma la clave compuesta.
func SubjectID(provider, profileID string) string {
	return strings.ToLower(strings.TrimSpace(provider)) + ":" + strings.TrimSpace(profileID)
}

// Store es idempotente sobre Upsert: logins repetidos actualizan tokens y
// LastLoginAt, nunca duplican el registro.
type Store interface {
	Upsert(ctx context.Context, s Subject) (Subject, error)
	Get(ctx context.Context, id string) (Subject, error)
}

// prepare normaliza y completa el ID.
func prepare(s Subject) (Subject, error) {
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	s.ProfileID = strings.TrimSpace(s.ProfileID)
	if s.Provider == "" || s.ProfileID == "" {
		return Subject{}, ErrInvalidSubject
	}
	s.ID = SubjectID(s.Provider, s.ProfileID)
	return s, nil
}
