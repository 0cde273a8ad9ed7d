package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	uuid "github.com/google/uuid"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
	"github.com/alvarohurtadobo/iot-backend/internal/infra/config"
	"github.com/alvarohurtadobo/iot-backend/internal/infra/security"
	"github.com/alvarohurtadobo/iot-backend/internal/repository"
	"github.com/alvarohurtadobo/iot-backend/internal/repository/memory"
	"github.com/alvarohurtadobo/iot-backend/internal/usecase"
)

type fakeUserRepository struct {
	user *domain.User
}

func (r *fakeUserRepository) Create(context.Context, domain.User) error {
	return errors.New("unexpected call: Create")
}

func (r *fakeUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	if r.user == nil || r.user.ID != id {
		return nil, repository.ErrNotFound
	}
	u := *r.user
	return &u, nil
}

func (r *fakeUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.user == nil || r.user.Email != email {
		return nil, repository.ErrNotFound
	}
	u := *r.user
	return &u, nil
}

func (r *fakeUserRepository) List(context.Context) ([]domain.User, error) {
	return nil, errors.New("unexpected call: List")
}

func (r *fakeUserRepository) Update(context.Context, domain.User) error {
	return errors.New("unexpected call: Update")
}

func (r *fakeUserRepository) SaveLoginState(_ context.Context, user domain.User) error {
	r.user.FailedAttemptCount = user.FailedAttemptCount
	r.user.LockedUntil = user.LockedUntil
	r.user.LastLoginAt = user.LastLoginAt
	return nil
}

func (r *fakeUserRepository) SoftDelete(context.Context, string) error {
	return errors.New("unexpected call: SoftDelete")
}

type fakeAuditSink struct {
	entries []domain.LoginAudit
}

func (s *fakeAuditSink) Append(_ context.Context, entry domain.LoginAudit) error {
	s.entries = append(s.entries, entry)
	return nil
}

type fakeRevocationStore struct {
	revoked map[string]time.Time
}

func (s *fakeRevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	s.revoked[jti] = expiresAt
	return nil
}

func (s *fakeRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := s.revoked[jti]
	return ok, nil
}

func (s *fakeRevocationStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type authTestServer struct {
	engine *gin.Engine
	users  *fakeUserRepository
	audits *fakeAuditSink
}

func newAuthTestServer(t *testing.T, password string) *authTestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	hash, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	codec, err := security.NewTokenCodec("test-secret", "HS256")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	cfg := &config.AppConfig{
		JWT: config.JWTSettings{
			Secret:          "test-secret",
			Algorithm:       "HS256",
			AccessTokenTTL:  30 * time.Minute,
			RefreshTokenTTL: 168 * time.Hour,
		},
		Security: config.SecuritySettings{
			MaxLoginAttempts: 5,
			LockoutDuration:  30 * time.Minute,
		},
		RateLimit: config.RateLimitSettings{
			WindowDuration:    time.Minute,
			RequestsPerWindow: 5,
		},
	}

	users := &fakeUserRepository{user: &domain.User{
		ID:           uuid.NewString(),
		Email:        "a@x.com",
		PasswordHash: hash,
	}}
	audits := &fakeAuditSink{}
	revoked := &fakeRevocationStore{revoked: make(map[string]time.Time)}

	auth := usecase.NewAuthService(cfg, users, audits, revoked, memory.NewRateLimitStore(), hasher, codec, nil, nil)

	engine := gin.New()
	NewAuthHandler(auth).RegisterRoutes(engine.Group("/api/v1/auth"))

	return &authTestServer{engine: engine, users: users, audits: audits}
}

func (s *authTestServer) post(t *testing.T, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func decodeTokens(t *testing.T, rec *httptest.ResponseRecorder) TokenResponse {
	t.Helper()
	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode token body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestLoginEndpointSuccess(t *testing.T) {
	srv := newAuthTestServer(t, "secret123")

	rec := srv.post(t, "/api/v1/auth/login", gin.H{"email": "a@x.com", "password": "secret123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	tokens := decodeTokens(t, rec)
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected both tokens in response")
	}
	if tokens.TokenType != "bearer" {
		t.Fatalf("token_type = %q", tokens.TokenType)
	}
	if tokens.ExpiresIn != 1800 {
		t.Fatalf("expires_in = %d, want 1800", tokens.ExpiresIn)
	}
}

func TestLoginEndpointIndistinguishableFailures(t *testing.T) {
	srv := newAuthTestServer(t, "secret123")

	unknown := srv.post(t, "/api/v1/auth/login", gin.H{"email": "nobody@x.com", "password": "whatever"})
	wrongPassword := srv.post(t, "/api/v1/auth/login", gin.H{"email": "a@x.com", "password": "wrong"})

	if unknown.Code != http.StatusUnauthorized || wrongPassword.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d/%d, want 401/401", unknown.Code, wrongPassword.Code)
	}
	// The two bodies must be byte-identical so the response cannot be used
	// to enumerate accounts.
	if !bytes.Equal(unknown.Body.Bytes(), wrongPassword.Body.Bytes()) {
		t.Fatalf("bodies differ: %q vs %q", unknown.Body.String(), wrongPassword.Body.String())
	}
	if resp := decodeError(t, unknown); resp.Error != "Incorrect email or password" {
		t.Fatalf("error = %q", resp.Error)
	}
	if got := unknown.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("WWW-Authenticate = %q", got)
	}
}

func TestLoginEndpointDisabledAccount(t *testing.T) {
	srv := newAuthTestServer(t, "secret123")
	deletedAt := time.Now().UTC()
	srv.users.user.DeletedAt = &deletedAt

	rec := srv.post(t, "/api/v1/auth/login", gin.H{"email": "a@x.com", "password": "secret123"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "User account is disabled" {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestLoginEndpointLockedAccount(t *testing.T) {
	srv := newAuthTestServer(t, "secret123")
	lockedUntil := time.Now().UTC().Add(30 * time.Minute)
	srv.users.user.FailedAttemptCount = 5
	srv.users.user.LockedUntil = &lockedUntil

	rec := srv.post(t, "/api/v1/auth/login", gin.H{"email": "a@x.com", "password": "secret123"})
	if rec.Code != http.StatusLocked {
		t.Fatalf("status = %d, want 423", rec.Code)
	}
	want := "Account locked due to too many failed login attempts. Try again in 30 minutes."
	if resp := decodeError(t, rec); resp.Error != want {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestLoginEndpointRateLimited(t *testing.T) {
	srv := newAuthTestServer(t, "secret123")

	for i := 0; i < 5; i++ {
		srv.post(t, "/api/v1/auth/login", gin.H{"email": "a@x.com", "password": "wrong"})
	}

	rec := srv.post(t, "/api/v1/auth/login", gin.H{"email": "a@x.com", "password": "secret123"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("Retry-After = %q", got)
	}
	if resp := decodeError(t, rec); resp.Error != "Too many requests. Please try again later." {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestLoginEndpointRejectsMissingFields(t *testing.T) {
	srv := newAuthTestServer(t, "secret123")

	rec := srv.post(t, "/api/v1/auth/login", gin.H{"email": "a@x.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRefreshEndpointRotation(t *testing.T) {
	srv := newAuthTestServer(t, "secret123")

	login := srv.post(t, "/api/v1/auth/login", gin.H{"email": "a@x.com", "password": "secret123"})
	tokens := decodeTokens(t, login)

	first := srv.post(t, "/api/v1/auth/refresh", gin.H{"refresh_token": tokens.RefreshToken})
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", first.Code, first.Body.String())
	}
	rotated := decodeTokens(t, first)
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatal("refresh must rotate the refresh token")
	}

	second := srv.post(t, "/api/v1/auth/refresh", gin.H{"refresh_token": tokens.RefreshToken})
	if second.Code != http.StatusUnauthorized {
		t.Fatalf("replayed refresh status = %d, want 401", second.Code)
	}
	if resp := decodeError(t, second); resp.Error != "refresh token has been revoked" {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestRefreshEndpointRejectsGarbage(t *testing.T) {
	srv := newAuthTestServer(t, "secret123")

	rec := srv.post(t, "/api/v1/auth/refresh", gin.H{"refresh_token": "not-a-jwt"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "invalid refresh token" {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestLogoutEndpointIdempotent(t *testing.T) {
	srv := newAuthTestServer(t, "secret123")

	login := srv.post(t, "/api/v1/auth/login", gin.H{"email": "a@x.com", "password": "secret123"})
	tokens := decodeTokens(t, login)

	for i := 0; i < 2; i++ {
		rec := srv.post(t, "/api/v1/auth/logout", gin.H{"refresh_token": tokens.RefreshToken})
		if rec.Code != http.StatusOK {
			t.Fatalf("logout %d status = %d", i+1, rec.Code)
		}
		var resp MessageResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Message != "Successfully logged out" {
			t.Fatalf("message = %q", resp.Message)
		}
	}

	// The revoked refresh token can no longer be exchanged.
	rec := srv.post(t, "/api/v1/auth/refresh", gin.H{"refresh_token": tokens.RefreshToken})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout status = %d, want 401", rec.Code)
	}
}

func TestLogoutEndpointAcceptsGarbageToken(t *testing.T) {
	srv := newAuthTestServer(t, "secret123")

	rec := srv.post(t, "/api/v1/auth/logout", gin.H{"refresh_token": "garbage"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
