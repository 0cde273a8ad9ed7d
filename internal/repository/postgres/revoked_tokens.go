package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alvarohurtadobo/iot-backend/internal/core/port"
)

// RevokedTokenRepository persists revoked refresh-token identifiers so that
// revocation survives process restarts. Rows past expires_at are dead weight
// but harmless; DeleteExpired exists for housekeeping and nothing depends on
// it running.
type RevokedTokenRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRevokedTokenRepository wires a PostgreSQL-backed revocation ledger.
func NewRevokedTokenRepository(pool *pgxpool.Pool) *RevokedTokenRepository {
	return &RevokedTokenRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Revoke inserts a blacklist entry for the supplied jti. Idempotent: the
// unique constraint on jti plus ON CONFLICT DO NOTHING makes duplicate and
// concurrent revocations of the same id a no-op.
func (r *RevokedTokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	sql, args, err := r.builder.Insert("revoked_tokens").
		Columns("id", "jti", "revoked_at", "expires_at").
		Values(uuid.NewString(), jti, time.Now().UTC(), expiresAt.UTC()).
		Suffix("ON CONFLICT (jti) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert revoked token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert revoked token: %w", err)
	}

	return nil
}

// IsRevoked reports whether the supplied jti appears in the ledger.
func (r *RevokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	stmt, args, err := r.builder.
		Select("1").
		From("revoked_tokens").
		Where(squirrel.Eq{"jti": jti}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select revoked token sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("query revoked token: %w", err)
	}

	return true, nil
}

// DeleteExpired removes ledger rows whose expiry has passed and returns the
// number of rows deleted.
func (r *RevokedTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	sql, args, err := r.builder.Delete("revoked_tokens").
		Where(squirrel.Lt{"expires_at": now.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete expired tokens sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	return tag.RowsAffected(), nil
}

var _ port.RevocationStore = (*RevokedTokenRepository)(nil)
