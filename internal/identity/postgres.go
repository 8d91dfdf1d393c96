package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
	"github.com/dropDatabas3/socialconnect/migrations/postgres"
)

// PostgresStore persiste sujetos en la tabla subject (ver migrations/postgres).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore abre el pool y aplica el schema (idempotente).
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("identity: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("identity: ping: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	files, err := postgres.Files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if _, err := s.pool.Exec(ctx, f.SQL); err != nil {
			return fmt.Errorf("identity: migration %s: %w", f.Name, err)
		}
		logger.From(ctx).Debug("migration applied", logger.Component("identity"), logger.String("file", f.Name))
	}
	return nil
}

const upsertSQL = `
INSERT INTO subject (id, provider, profile_id, display_name, access_token, refresh_token, token_expiry, created_at, last_login_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
ON CONFLICT (id) DO UPDATE SET
	display_name  = COALESCE(NULLIF(EXCLUDED.display_name, ''), subject.display_name),
	access_token  = EXCLUDED.access_token,
	refresh_token = EXCLUDED.refresh_token,
	token_expiry  = EXCLUDED.token_expiry,
	last_login_at = NOW()
RETURNING id, provider, profile_id, display_name, access_token, refresh_token, token_expiry, created_at, last_login_at`

func (s *PostgresStore) Upsert(ctx context.Context, sub Subject) (Subject, error) {
	sub, err := prepare(sub)
	if err != nil {
		return Subject{}, err
	}
	var expiry any
	if !sub.TokenExpiry.IsZero() {
		expiry = sub.TokenExpiry
	}
	row := s.pool.QueryRow(ctx, upsertSQL,
		sub.ID, sub.Provider, sub.ProfileID, sub.DisplayName, sub.AccessToken, sub.RefreshToken, expiry)
	out, err := scanSubject(row)
	if err != nil {
		return Subject{}, fmt.Errorf("identity: upsert %s: %w", sub.ID, err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Subject, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, provider, profile_id, display_name, access_token, refresh_token, token_expiry, created_at, last_login_at
		FROM subject WHERE id = $1`, id)
	out, err := scanSubject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subject{}, ErrNotFound
	}
	return out, err
}

func (s *PostgresStore) Close() { s.pool.Close() }

func scanSubject(row pgx.Row) (Subject, error) {
	var (
		out    Subject
		expiry *time.Time
	)
	err := row.Scan(&out.ID, &out.Provider, &out.ProfileID, &out.DisplayName,
		&out.AccessToken, &out.RefreshToken, &expiry, &out.CreatedAt, &out.LastLoginAt)
	if err != nil {
		return Subject{}, err
	}
	if expiry != nil {
		out.TokenExpiry = *expiry
	}
	return out, nil
}

// Ping verifica la conexión (readiness).
func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }
