package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	uuid "github.com/google/uuid"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
	"github.com/alvarohurtadobo/iot-backend/internal/infra/config"
	"github.com/alvarohurtadobo/iot-backend/internal/infra/security"
	"github.com/alvarohurtadobo/iot-backend/internal/repository"
)

type stubUserRepository struct {
	user       *domain.User
	savedState []domain.User
}

func (r *stubUserRepository) Create(context.Context, domain.User) error {
	return errors.New("unexpected call: Create")
}

func (r *stubUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	if r.user == nil || r.user.ID != id || r.user.IsDeleted() {
		return nil, repository.ErrNotFound
	}
	u := *r.user
	return &u, nil
}

func (r *stubUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.user == nil || r.user.Email != email {
		return nil, repository.ErrNotFound
	}
	u := *r.user
	return &u, nil
}

func (r *stubUserRepository) List(context.Context) ([]domain.User, error) {
	return nil, errors.New("unexpected call: List")
}

func (r *stubUserRepository) Update(context.Context, domain.User) error {
	return errors.New("unexpected call: Update")
}

func (r *stubUserRepository) SaveLoginState(_ context.Context, user domain.User) error {
	r.savedState = append(r.savedState, user)
	r.user.FailedAttemptCount = user.FailedAttemptCount
	r.user.LockedUntil = user.LockedUntil
	r.user.LastLoginAt = user.LastLoginAt
	return nil
}

func (r *stubUserRepository) SoftDelete(context.Context, string) error {
	return errors.New("unexpected call: SoftDelete")
}

type stubAuditSink struct {
	entries []domain.LoginAudit
}

func (s *stubAuditSink) Append(_ context.Context, entry domain.LoginAudit) error {
	s.entries = append(s.entries, entry)
	return nil
}

type stubRevocationStore struct {
	revoked map[string]time.Time
}

func newStubRevocationStore() *stubRevocationStore {
	return &stubRevocationStore{revoked: make(map[string]time.Time)}
}

func (s *stubRevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	s.revoked[jti] = expiresAt
	return nil
}

func (s *stubRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := s.revoked[jti]
	return ok, nil
}

func (s *stubRevocationStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type stubRateLimitStore struct {
	attempts map[string][]time.Time
}

func newStubRateLimitStore() *stubRateLimitStore {
	return &stubRateLimitStore{attempts: make(map[string][]time.Time)}
}

func (s *stubRateLimitStore) CheckAndRecord(ctx context.Context, identifier string, window time.Duration, limit int, at time.Time) (bool, error) {
	if err := s.TrimWindow(ctx, identifier, window, at); err != nil {
		return false, err
	}
	if len(s.attempts[identifier]) >= limit {
		return false, nil
	}
	s.attempts[identifier] = append(s.attempts[identifier], at)
	return true, nil
}

func (s *stubRateLimitStore) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	cutoff := reference.Add(-window)
	kept := s.attempts[identifier][:0]
	for _, ts := range s.attempts[identifier] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	s.attempts[identifier] = kept
	return nil
}

func (s *stubRateLimitStore) CountAttempts(_ context.Context, identifier string, _ time.Duration, _ time.Time) (int, error) {
	return len(s.attempts[identifier]), nil
}

func (s *stubRateLimitStore) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	s.attempts[identifier] = append(s.attempts[identifier], at)
	return nil
}

func (s *stubRateLimitStore) OldestAttempt(_ context.Context, identifier string, _ time.Duration, _ time.Time) (time.Time, bool, error) {
	if len(s.attempts[identifier]) == 0 {
		return time.Time{}, false, nil
	}
	return s.attempts[identifier][0], true, nil
}

func testAuthConfig() *config.AppConfig {
	return &config.AppConfig{
		JWT: config.JWTSettings{
			Secret:          "test-secret",
			Algorithm:       "HS256",
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 168 * time.Hour,
		},
		Security: config.SecuritySettings{
			MaxLoginAttempts:  5,
			LockoutDuration:   30 * time.Minute,
			PasswordMinLength: 8,
		},
		RateLimit: config.RateLimitSettings{
			WindowDuration:    time.Minute,
			RequestsPerWindow: 5,
		},
	}
}

func testHasher(t *testing.T) *security.PasswordHasher {
	t.Helper()
	hasher, err := security.NewPasswordHasher(security.Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}
	return hasher
}

type authFixture struct {
	service *AuthService
	users   *stubUserRepository
	audits  *stubAuditSink
	revoked *stubRevocationStore
	limiter *stubRateLimitStore
	codec   *security.TokenCodec
	now     time.Time
}

func newAuthFixture(t *testing.T, password string) *authFixture {
	t.Helper()

	hasher := testHasher(t)
	hash, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	codec, err := security.NewTokenCodec("test-secret", "HS256")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	users := &stubUserRepository{user: &domain.User{
		ID:           uuid.NewString(),
		Email:        "a@x.com",
		PasswordHash: hash,
	}}
	audits := &stubAuditSink{}
	revoked := newStubRevocationStore()
	limiter := newStubRateLimitStore()

	service := NewAuthService(testAuthConfig(), users, audits, revoked, limiter, hasher, codec, nil, nil).
		WithClock(func() time.Time { return now })

	return &authFixture{
		service: service,
		users:   users,
		audits:  audits,
		revoked: revoked,
		limiter: limiter,
		codec:   codec,
		now:     now,
	}
}

func (f *authFixture) login(t *testing.T, password string) (*TokenPair, error) {
	t.Helper()
	return f.service.Login(context.Background(), LoginInput{
		Email:    "a@x.com",
		Password: password,
		ClientIP: "203.0.113.7",
	})
}

func TestLoginSuccessResetsCounterAndAuditsOnce(t *testing.T) {
	f := newAuthFixture(t, "secret123")
	f.users.user.FailedAttemptCount = 3

	pair, err := f.login(t, "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if pair.TokenType != "bearer" {
		t.Fatalf("token type = %q, want bearer", pair.TokenType)
	}
	if pair.ExpiresIn != int64((30 * time.Minute).Seconds()) {
		t.Fatalf("expires_in = %d", pair.ExpiresIn)
	}

	if f.users.user.FailedAttemptCount != 0 {
		t.Fatalf("failed attempt count = %d, want 0", f.users.user.FailedAttemptCount)
	}
	if f.users.user.LockedUntil != nil {
		t.Fatal("locked_until should be cleared")
	}
	if f.users.user.LastLoginAt == nil || !f.users.user.LastLoginAt.Equal(f.now) {
		t.Fatalf("last_login_at = %v, want %v", f.users.user.LastLoginAt, f.now)
	}

	if len(f.audits.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(f.audits.entries))
	}
	entry := f.audits.entries[0]
	if !entry.Success {
		t.Fatal("audit entry should record success")
	}
	if entry.UserID == nil || *entry.UserID != f.users.user.ID {
		t.Fatal("audit entry should carry the user id")
	}
	if entry.FailureReason != nil {
		t.Fatalf("failure reason = %q, want nil", *entry.FailureReason)
	}
}

func TestLoginIssuedTokensCarryExpectedClaims(t *testing.T) {
	f := newAuthFixture(t, "secret123")

	pair, err := f.login(t, "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	access, err := f.codec.Decode(pair.AccessToken)
	if err != nil {
		t.Fatalf("decode access token: %v", err)
	}
	if access.Kind != security.TokenKindAccess {
		t.Fatalf("access kind = %q", access.Kind)
	}
	if access.Subject != f.users.user.ID {
		t.Fatalf("access subject = %q", access.Subject)
	}
	if access.Email != "a@x.com" {
		t.Fatalf("access email = %q", access.Email)
	}
	if access.ID == "" {
		t.Fatal("access jti missing")
	}

	refresh, err := f.codec.Decode(pair.RefreshToken)
	if err != nil {
		t.Fatalf("decode refresh token: %v", err)
	}
	if refresh.Kind != security.TokenKindRefresh {
		t.Fatalf("refresh kind = %q", refresh.Kind)
	}
	if refresh.ID == access.ID {
		t.Fatal("access and refresh tokens must carry distinct jtis")
	}
}

func TestLoginWrongPasswordIncrementsPerAttempt(t *testing.T) {
	f := newAuthFixture(t, "secret123")

	for attempt := 1; attempt <= 4; attempt++ {
		_, err := f.login(t, "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: err = %v, want ErrInvalidCredentials", attempt, err)
		}
		if f.users.user.FailedAttemptCount != attempt {
			t.Fatalf("attempt %d: count = %d", attempt, f.users.user.FailedAttemptCount)
		}
		if f.users.user.LockedUntil != nil {
			t.Fatalf("attempt %d: account locked early", attempt)
		}
	}

	if len(f.audits.entries) != 4 {
		t.Fatalf("audit entries = %d, want 4", len(f.audits.entries))
	}
	for i, entry := range f.audits.entries {
		if entry.Success {
			t.Fatalf("entry %d unexpectedly successful", i)
		}
		if entry.FailureReason == nil || *entry.FailureReason != "Incorrect password" {
			t.Fatalf("entry %d reason = %v", i, entry.FailureReason)
		}
	}
}

func TestLoginLockoutAtThresholdPinsCounter(t *testing.T) {
	f := newAuthFixture(t, "secret123")
	f.users.user.FailedAttemptCount = 4

	_, err := f.login(t, "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("locking attempt err = %v, want ErrInvalidCredentials", err)
	}

	if f.users.user.FailedAttemptCount != 5 {
		t.Fatalf("count = %d, want pinned at 5", f.users.user.FailedAttemptCount)
	}
	if f.users.user.LockedUntil == nil {
		t.Fatal("locked_until should be set")
	}
	wantUntil := f.now.Add(30 * time.Minute)
	if !f.users.user.LockedUntil.Equal(wantUntil) {
		t.Fatalf("locked_until = %v, want %v", f.users.user.LockedUntil, wantUntil)
	}

	// Correct password while locked still fails.
	_, err = f.login(t, "secret123")
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("locked attempt err = %v, want ErrAccountLocked", err)
	}

	last := f.audits.entries[len(f.audits.entries)-1]
	if last.FailureReason == nil || *last.FailureReason != "Account locked" {
		t.Fatalf("locked audit reason = %v", last.FailureReason)
	}
}

func TestLoginSucceedsAfterLockoutElapses(t *testing.T) {
	f := newAuthFixture(t, "secret123")
	lockedUntil := f.now.Add(-time.Minute)
	f.users.user.FailedAttemptCount = 5
	f.users.user.LockedUntil = &lockedUntil

	pair, err := f.login(t, "secret123")
	if err != nil {
		t.Fatalf("Login after lockout elapsed: %v", err)
	}
	if pair == nil {
		t.Fatal("expected token pair")
	}
	if f.users.user.FailedAttemptCount != 0 {
		t.Fatalf("count = %d, want 0", f.users.user.FailedAttemptCount)
	}
}

func TestLoginUnknownUserReturnsInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t, "secret123")

	_, err := f.service.Login(context.Background(), LoginInput{
		Email:    "nobody@x.com",
		Password: "whatever",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}

	if len(f.audits.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(f.audits.entries))
	}
	entry := f.audits.entries[0]
	if entry.UserID != nil {
		t.Fatal("audit user id should be nil for unknown email")
	}
	if entry.FailureReason == nil || *entry.FailureReason != "User not found" {
		t.Fatalf("reason = %v", entry.FailureReason)
	}
}

func TestLoginDeletedUserReturnsAccountDisabled(t *testing.T) {
	f := newAuthFixture(t, "secret123")
	deletedAt := f.now.Add(-time.Hour)
	f.users.user.DeletedAt = &deletedAt

	_, err := f.login(t, "secret123")
	if !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("err = %v, want ErrAccountDisabled", err)
	}

	if len(f.audits.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(f.audits.entries))
	}
	if reason := f.audits.entries[0].FailureReason; reason == nil || *reason != "Account disabled" {
		t.Fatalf("reason = %v", reason)
	}
}

func TestLoginRateLimitedWritesNoAudit(t *testing.T) {
	f := newAuthFixture(t, "secret123")

	// Fill the window for this email.
	for i := 0; i < 5; i++ {
		f.limiter.attempts["login:a@x.com"] = append(f.limiter.attempts["login:a@x.com"], f.now)
	}

	_, err := f.login(t, "secret123")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	if len(f.audits.entries) != 0 {
		t.Fatalf("audit entries = %d, want 0 for throttled attempt", len(f.audits.entries))
	}
	if f.users.user.FailedAttemptCount != 0 {
		t.Fatal("throttled attempt must not touch the lockout counter")
	}
	// A denied attempt is not recorded against the window.
	if got := len(f.limiter.attempts["login:a@x.com"]); got != 5 {
		t.Fatalf("recorded attempts = %d, want 5", got)
	}
}

func TestLoginFiveAttemptsAllowedThenSixthDenied(t *testing.T) {
	f := newAuthFixture(t, "secret123")

	for i := 0; i < 5; i++ {
		if _, err := f.login(t, "wrong"); !errors.Is(err, ErrInvalidCredentials) && !errors.Is(err, ErrAccountLocked) {
			t.Fatalf("attempt %d: err = %v", i+1, err)
		}
	}

	_, err := f.login(t, "wrong")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("sixth attempt err = %v, want ErrRateLimited", err)
	}
	if len(f.audits.entries) != 5 {
		t.Fatalf("audit entries = %d, want 5", len(f.audits.entries))
	}
}

func TestRefreshRotationIsSingleUse(t *testing.T) {
	f := newAuthFixture(t, "secret123")

	pair, err := f.login(t, "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	oldClaims, err := f.codec.Decode(pair.RefreshToken)
	if err != nil {
		t.Fatalf("decode refresh: %v", err)
	}

	rotated, err := f.service.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must produce a new refresh token")
	}

	if revoked, _ := f.revoked.IsRevoked(context.Background(), oldClaims.ID); !revoked {
		t.Fatal("presented refresh token should be revoked after rotation")
	}

	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	if !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("second refresh err = %v, want ErrTokenRevoked", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t, "secret123")

	pair, err := f.login(t, "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, err = f.service.Refresh(context.Background(), pair.AccessToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	f := newAuthFixture(t, "secret123")

	_, err := f.service.Refresh(context.Background(), "not-a-jwt")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshDeletedUserReturnsUserUnavailable(t *testing.T) {
	f := newAuthFixture(t, "secret123")

	pair, err := f.login(t, "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	deletedAt := f.now
	f.users.user.DeletedAt = &deletedAt

	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	if !errors.Is(err, ErrUserUnavailable) {
		t.Fatalf("err = %v, want ErrUserUnavailable", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newAuthFixture(t, "secret123")

	pair, err := f.login(t, "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := f.service.Logout(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	if err := f.service.Logout(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("second logout: %v", err)
	}

	claims, _ := f.codec.Decode(pair.RefreshToken)
	if revoked, _ := f.revoked.IsRevoked(context.Background(), claims.ID); !revoked {
		t.Fatal("refresh token should be revoked after logout")
	}

	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	if !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("refresh after logout err = %v, want ErrTokenRevoked", err)
	}
}

func TestLogoutSwallowsUndecodableToken(t *testing.T) {
	f := newAuthFixture(t, "secret123")

	if err := f.service.Logout(context.Background(), "garbage"); err != nil {
		t.Fatalf("logout with garbage token: %v", err)
	}
	if err := f.service.Logout(context.Background(), ""); err != nil {
		t.Fatalf("logout with empty token: %v", err)
	}
}

func TestValidateAccessResolvesUser(t *testing.T) {
	f := newAuthFixture(t, "secret123")

	pair, err := f.login(t, "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	user, claims, err := f.service.ValidateAccess(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if user.ID != f.users.user.ID {
		t.Fatalf("user id = %q", user.ID)
	}
	if claims.Kind != security.TokenKindAccess {
		t.Fatalf("kind = %q", claims.Kind)
	}

	if _, _, err := f.service.ValidateAccess(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}
}
