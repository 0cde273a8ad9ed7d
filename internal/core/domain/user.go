package domain

import "time"

// User mirrors the persisted representation in the users table.
type User struct {
	ID                 string
	FirstName          string
	LastName           string
	ProfilePicture     *string
	Email              string
	PasswordHash       string
	RoleID             string
	BusinessID         *string
	BranchID           *string
	FailedAttemptCount int
	LockedUntil        *time.Time
	LastLoginAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

// IsDeleted reports whether the account was soft-deleted. A deleted user is
// never authenticable.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// IsLocked reports whether the account lockout is still in effect at the
// supplied reference time. Comparison is done in UTC.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.UTC().After(now.UTC())
}

// Role groups users for authorization purposes.
type Role struct {
	ID          string
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// LoginAudit records a single authentication attempt. Rows are append-only;
// user_id is nil when the submitted email matched no account.
type LoginAudit struct {
	ID            string
	UserID        *string
	Email         string
	IPAddress     *string
	UserAgent     *string
	Success       bool
	FailureReason *string
	AttemptedAt   time.Time
}

// RevokedToken is a blacklist entry for a refresh token jti. ExpiresAt is
// copied from the token's own expiry so stale rows can be garbage-collected.
type RevokedToken struct {
	ID        string
	JTI       string
	RevokedAt time.Time
	ExpiresAt time.Time
}
