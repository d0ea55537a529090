// Package pgstore keeps the bearer token in a PostgreSQL row so several
// processes can share one login.
package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/and161185/academy-client/internal/credentials"
)

// PgxPool is the subset of *pgxpool.Pool used here; pgxmock.PgxPoolIface satisfies it.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements credentials.Provider over the credential_slots table.
type Store struct {
	pool PgxPool
	slot string
	now  func() time.Time
}

var _ credentials.Provider = (*Store)(nil)

// New connects to dsn. Run migrate.Up first.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewWithPool(pool), nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool PgxPool) *Store {
	return &Store{pool: pool, slot: credentials.SlotName, now: time.Now}
}

// Close closes the underlying pool.
func (s *Store) Close() { s.pool.Close() }

func (s *Store) Token(ctx context.Context) (string, error) {
	const q = `SELECT token, expires_at FROM credential_slots WHERE name=$1`
	var (
		tok string
		exp int64
	)
	if err := s.pool.QueryRow(ctx, q, s.slot).Scan(&tok, &exp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	if exp > 0 && !s.now().Before(time.Unix(exp, 0)) {
		return "", nil
	}
	return tok, nil
}

func (s *Store) Set(ctx context.Context, token string) error {
	const q = `
INSERT INTO credential_slots (name, token, expires_at, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (name) DO UPDATE SET token=EXCLUDED.token, expires_at=EXCLUDED.expires_at, updated_at=now()`
	var exp int64
	if t, ok := credentials.ExpiryOf(token); ok {
		exp = t.Unix()
	}
	_, err := s.pool.Exec(ctx, q, s.slot, token, exp)
	return err
}

func (s *Store) Clear(ctx context.Context) error {
	const q = `DELETE FROM credential_slots WHERE name=$1`
	_, err := s.pool.Exec(ctx, q, s.slot)
	return err
}
