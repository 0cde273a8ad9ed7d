package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

// Token kinds carried in the "kind" claim. The codec itself is agnostic;
// callers enforce the kind they expect.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

var (
	// ErrTokenInvalid indicates the token is malformed or its signature does
	// not verify.
	ErrTokenInvalid = errors.New("jwt: invalid token")
	// ErrTokenExpired indicates a structurally valid token whose expiry has
	// passed. Treated as invalid for authorization purposes; the distinction
	// exists for caller logging only.
	ErrTokenExpired = errors.New("jwt: token expired")
)

// SessionClaims is the claim set carried by access and refresh tokens.
type SessionClaims struct {
	Email string `json:"email"`
	Kind  string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies session tokens with a server-held secret and
// a fixed HMAC algorithm agreed at process start.
type TokenCodec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
}

// NewTokenCodec constructs a codec for the supplied secret and algorithm
// identifier. Only HMAC algorithms are accepted.
func NewTokenCodec(secret, algorithm string) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt: signing secret is required")
	}

	var method *jwt.SigningMethodHMAC
	switch strings.ToUpper(strings.TrimSpace(algorithm)) {
	case "HS256", "":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("jwt: unsupported algorithm %q", algorithm)
	}

	return &TokenCodec{secret: []byte(secret), method: method}, nil
}

// Issue signs a token for the supplied subject. A fresh random jti is
// generated per issuance; issued_at and expires_at are computed from now and
// ttl. Returns the signed token and its claims.
func (c *TokenCodec) Issue(subject, email, kind string, ttl time.Duration) (string, *SessionClaims, error) {
	if subject == "" {
		return "", nil, fmt.Errorf("jwt: subject is required")
	}
	if ttl <= 0 {
		return "", nil, fmt.Errorf("jwt: ttl must be positive")
	}

	now := time.Now().UTC()
	claims := &SessionClaims{
		Email: email,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, claims, nil
}

// Decode verifies the token signature and expiry and returns its claims.
// Returns ErrTokenExpired for expired tokens and ErrTokenInvalid for every
// other failure mode.
func (c *TokenCodec) Decode(token string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
