package port

import (
	"context"
	"time"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
)

// RevocationStore persists revoked refresh-token identifiers so revocation
// survives process restarts. Revoke is idempotent; revoking an already
// revoked jti is a no-op. Entries past their expiry may be removed at any
// time, but no cleanup is required for correctness: IsRevoked is always
// consulted before token expiry matters.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuditSink appends login audit entries. Best-effort from the caller's
// perspective: append failures must not fail the surrounding operation.
type AuditSink interface {
	Append(ctx context.Context, entry domain.LoginAudit) error
}

// RateLimitStore defines the persistence operations required to enforce
// sliding-window limits.
//
// CheckAndRecord evaluates and consumes one slot atomically: concurrent
// callers for the same identifier can never both be admitted past the
// limit. The remaining operations are non-atomic building blocks for
// callers that additionally need counts or reset times for headers.
type RateLimitStore interface {
	CheckAndRecord(ctx context.Context, identifier string, window time.Duration, limit int, at time.Time) (bool, error)
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}
