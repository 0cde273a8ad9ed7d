package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
	"github.com/alvarohurtadobo/iot-backend/internal/core/port"
	"github.com/alvarohurtadobo/iot-backend/internal/infra/config"
	"github.com/alvarohurtadobo/iot-backend/internal/infra/logger"
	"github.com/alvarohurtadobo/iot-backend/internal/infra/security"
	"github.com/alvarohurtadobo/iot-backend/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the email or password is incorrect.
	// Deliberately covers both "no such user" and "wrong password" so the
	// response cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled indicates the account was soft-deleted.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountLocked indicates the lockout window has not elapsed yet.
	ErrAccountLocked = errors.New("account locked")
	// ErrRateLimited indicates the login rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidToken indicates a malformed, expired, or mis-signed token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked indicates the refresh token was already used or
	// explicitly revoked.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrUserUnavailable indicates the token subject no longer resolves to
	// an authenticable user.
	ErrUserUnavailable = errors.New("user unavailable")
)

// Audit failure reason codes. Stored verbatim in login_audits.
const (
	reasonUserNotFound      = "User not found"
	reasonAccountDisabled   = "Account disabled"
	reasonAccountLocked     = "Account locked"
	reasonIncorrectPassword = "Incorrect password"
)

const loginRateLimitKeyPrefix = "login:"

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
}

// LoginInput carries the credentials and client context of a login attempt.
type LoginInput struct {
	Email     string
	Password  string
	ClientIP  string
	UserAgent string
}

// AuthService orchestrates authentication: credential verification, account
// lockout, token issuance and rotation, revocation, and audit logging.
type AuthService struct {
	cfg     *config.AppConfig
	users   port.UserRepository
	audits  port.AuditSink
	revoked port.RevocationStore
	limiter port.RateLimitStore
	hasher  *security.PasswordHasher
	codec   *security.TokenCodec
	events  port.EventPublisher
	log     *zap.Logger
	now     func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg *config.AppConfig,
	users port.UserRepository,
	audits port.AuditSink,
	revoked port.RevocationStore,
	limiter port.RateLimitStore,
	hasher *security.PasswordHasher,
	codec *security.TokenCodec,
	events port.EventPublisher,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		cfg:     cfg,
		users:   users,
		audits:  audits,
		revoked: revoked,
		limiter: limiter,
		hasher:  hasher,
		codec:   codec,
		events:  events,
		log:     log,
		now:     time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// Login validates credentials and issues an access/refresh token pair.
//
// Rate limiting happens before the credential store is touched and a denied
// attempt writes no audit entry: throttling is a perimeter concern, not an
// authentication outcome. Every attempt that reaches the credential store
// produces exactly one audit entry.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	if in.Email == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	if !s.allowAttempt(ctx, loginRateLimitKeyPrefix+in.Email) {
		return nil, ErrRateLimited
	}

	now := s.now().UTC()

	// Case-sensitive exact match, matching observed behavior of the system
	// this replaces.
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.audit(ctx, nil, in, false, reasonUserNotFound, now)
			s.publishLoginFailed(ctx, nil, in, reasonUserNotFound, now)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.IsDeleted() {
		s.audit(ctx, &user.ID, in, false, reasonAccountDisabled, now)
		s.publishLoginFailed(ctx, &user.ID, in, reasonAccountDisabled, now)
		return nil, ErrAccountDisabled
	}

	if user.IsLocked(now) {
		s.audit(ctx, &user.ID, in, false, reasonAccountLocked, now)
		s.publishLoginFailed(ctx, &user.ID, in, reasonAccountLocked, now)
		return nil, ErrAccountLocked
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		user.FailedAttemptCount++
		if user.FailedAttemptCount >= s.maxLoginAttempts() {
			user.FailedAttemptCount = s.maxLoginAttempts()
			lockedUntil := now.Add(s.lockoutDuration())
			user.LockedUntil = &lockedUntil

			s.publishAccountLocked(ctx, user, lockedUntil, now)
		}

		if err := s.users.SaveLoginState(ctx, *user); err != nil {
			return nil, fmt.Errorf("save login state: %w", err)
		}

		s.audit(ctx, &user.ID, in, false, reasonIncorrectPassword, now)
		s.publishLoginFailed(ctx, &user.ID, in, reasonIncorrectPassword, now)
		return nil, ErrInvalidCredentials
	}

	user.FailedAttemptCount = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	if err := s.users.SaveLoginState(ctx, *user); err != nil {
		return nil, fmt.Errorf("save login state: %w", err)
	}

	s.audit(ctx, &user.ID, in, true, "", now)

	if s.events != nil {
		if err := s.events.PublishLoginSucceeded(ctx, domain.LoginSucceededEvent{
			UserID:     user.ID,
			Email:      user.Email,
			IPAddress:  in.ClientIP,
			OccurredAt: now,
		}); err != nil {
			s.log.Warn("publish login succeeded event", zap.Error(err))
		}
	}

	return s.issuePair(user)
}

// Refresh validates the presented refresh token, issues a fresh pair, and
// revokes the presented token: each refresh token is good for exactly one
// refresh call. Refresh is not a login event, so lockout counters and the
// audit log are untouched.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Kind != security.TokenKindRefresh {
		return nil, ErrInvalidToken
	}

	jti := strings.TrimSpace(claims.ID)
	if jti != "" {
		revoked, err := s.revoked.IsRevoked(ctx, jti)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserUnavailable
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.IsDeleted() {
		return nil, ErrUserUnavailable
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	// Best-effort single-use enforcement: a revocation ledger fault should
	// not cost the caller their new tokens.
	if jti != "" && claims.ExpiresAt != nil {
		if err := s.revoked.Revoke(ctx, jti, claims.ExpiresAt.Time); err != nil {
			logger.WithContext(ctx).Warn("revoke rotated refresh token",
				zap.String("jti", jti),
				zap.Error(err),
			)
		}
	}

	return pair, nil
}

// Logout revokes the presented refresh token. Idempotent and infallible from
// the caller's perspective: an undecodable token is treated as already
// logged out, and a repeat logout of the same token is a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil
	}

	jti := strings.TrimSpace(claims.ID)
	if jti == "" || claims.ExpiresAt == nil {
		return nil
	}

	if err := s.revoked.Revoke(ctx, jti, claims.ExpiresAt.Time); err != nil {
		s.log.Warn("revoke token on logout", zap.String("jti", jti), zap.Error(err))
	}

	return nil
}

// ValidateAccess decodes an access token and resolves its subject to an
// authenticable user. Used by the HTTP auth middleware.
func (s *AuthService) ValidateAccess(ctx context.Context, accessToken string) (*domain.User, *security.SessionClaims, error) {
	claims, err := s.codec.Decode(accessToken)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	if claims.Kind != security.TokenKindAccess {
		return nil, nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserUnavailable
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.IsDeleted() {
		return nil, nil, ErrUserUnavailable
	}

	return user, claims, nil
}

// LockoutMinutes exposes the configured lockout duration for user-visible
// messages.
func (s *AuthService) LockoutMinutes() int {
	return int(s.lockoutDuration().Minutes())
}

func (s *AuthService) issuePair(user *domain.User) (*TokenPair, error) {
	accessTTL := s.cfg.JWT.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	refreshTTL := s.cfg.JWT.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	access, _, err := s.codec.Issue(user.ID, user.Email, security.TokenKindAccess, accessTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, _, err := s.codec.Issue(user.ID, user.Email, security.TokenKindRefresh, refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(accessTTL.Seconds()),
	}, nil
}

// allowAttempt applies the sliding-window limit for the supplied key via the
// store's atomic check-and-record, so concurrent attempts for the same email
// cannot overshoot the limit. A denied attempt is not recorded. Store faults
// fail open: throttling is a mitigation, not a security boundary, and a
// broken limiter must not take login down with it.
func (s *AuthService) allowAttempt(ctx context.Context, key string) bool {
	if s.limiter == nil {
		return true
	}

	window := s.cfg.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}
	limit := s.cfg.RateLimit.RequestsPerWindow
	if limit <= 0 {
		limit = 5
	}

	allowed, err := s.limiter.CheckAndRecord(ctx, key, window, limit, s.now().UTC())
	if err != nil {
		s.log.Warn("rate limit check failed", zap.Error(err))
		return true
	}

	return allowed
}

// audit appends one login attempt record. Best-effort: audit storage faults
// are logged and never fail the login call.
func (s *AuthService) audit(ctx context.Context, userID *string, in LoginInput, success bool, reason string, at time.Time) {
	if s.audits == nil {
		return
	}

	entry := domain.LoginAudit{
		ID:          uuid.NewString(),
		UserID:      userID,
		Email:       in.Email,
		Success:     success,
		AttemptedAt: at,
	}
	if in.ClientIP != "" {
		ip := in.ClientIP
		entry.IPAddress = &ip
	}
	if in.UserAgent != "" {
		ua := in.UserAgent
		entry.UserAgent = &ua
	}
	if reason != "" {
		r := reason
		entry.FailureReason = &r
	}

	if err := s.audits.Append(ctx, entry); err != nil {
		s.log.Warn("append login audit",
			zap.String("email", logger.MaskEmail(in.Email)),
			zap.Error(err),
		)
	}
}

func (s *AuthService) publishLoginFailed(ctx context.Context, userID *string, in LoginInput, reason string, at time.Time) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLoginFailed(ctx, domain.LoginFailedEvent{
		UserID:     userID,
		Email:      in.Email,
		Reason:     reason,
		IPAddress:  in.ClientIP,
		OccurredAt: at,
	}); err != nil {
		s.log.Warn("publish login failed event", zap.Error(err))
	}
}

func (s *AuthService) publishAccountLocked(ctx context.Context, user *domain.User, lockedUntil, at time.Time) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishAccountLocked(ctx, domain.AccountLockedEvent{
		UserID:      user.ID,
		Email:       user.Email,
		LockedUntil: lockedUntil,
		OccurredAt:  at,
	}); err != nil {
		s.log.Warn("publish account locked event", zap.Error(err))
	}
}

func (s *AuthService) maxLoginAttempts() int {
	if s.cfg.Security.MaxLoginAttempts > 0 {
		return s.cfg.Security.MaxLoginAttempts
	}
	return 5
}

func (s *AuthService) lockoutDuration() time.Duration {
	if s.cfg.Security.LockoutDuration > 0 {
		return s.cfg.Security.LockoutDuration
	}
	return 30 * time.Minute
}
