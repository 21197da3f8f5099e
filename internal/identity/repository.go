package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

// ErrNotFound is returned when no profile matches.
var ErrNotFound = errors.New("profile not found")

// Repository reads profiles from the identity store.
type Repository interface {
	FindByID(ctx context.Context, id int64) (Profile, error)
	FindByEmail(ctx context.Context, email string) (Profile, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (Profile, error) {
	return r.one(ctx, `SELECT id, COALESCE(email, ''), active, created_at FROM accounts WHERE id = $1`, id)
}

// FindByEmail matches case-insensitively.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Profile, error) {
	return r.one(ctx, `SELECT id, COALESCE(email, ''), active, created_at FROM accounts
        WHERE lower(email) = lower($1) ORDER BY id LIMIT 1`, strings.TrimSpace(email))
}

func (r *PostgresRepository) one(ctx context.Context, sql string, arg any) (Profile, error) {
	var p Profile
	if err := r.db.QueryRow(ctx, sql, arg).Scan(&p.AccountID, &p.Email, &p.Active, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, apperr.FromPostgres(err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}
