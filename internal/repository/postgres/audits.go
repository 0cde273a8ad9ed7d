package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
	"github.com/alvarohurtadobo/iot-backend/internal/core/port"
)

// LoginAuditRepository appends immutable login attempt records. Rows are
// never updated or deleted through this repository.
type LoginAuditRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewLoginAuditRepository wires a PostgreSQL-backed audit sink.
func NewLoginAuditRepository(pool *pgxpool.Pool) *LoginAuditRepository {
	return &LoginAuditRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts one audit entry.
func (r *LoginAuditRepository) Append(ctx context.Context, entry domain.LoginAudit) error {
	sql, args, err := r.builder.Insert("login_audits").
		Columns("id", "user_id", "email", "ip_address", "user_agent", "success", "failure_reason", "attempted_at").
		Values(
			entry.ID,
			entry.UserID,
			entry.Email,
			entry.IPAddress,
			entry.UserAgent,
			entry.Success,
			entry.FailureReason,
			entry.AttemptedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert login audit sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert login audit: %w", err)
	}

	return nil
}

var _ port.AuditSink = (*LoginAuditRepository)(nil)
