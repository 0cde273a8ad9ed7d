package security

import (
	"errors"
	"testing"
	"time"
)

func TestNewTokenCodecRejectsBadInput(t *testing.T) {
	if _, err := NewTokenCodec("", "HS256"); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewTokenCodec("secret", "RS256"); err == nil {
		t.Fatal("expected error for non-HMAC algorithm")
	}
	if _, err := NewTokenCodec("secret", ""); err != nil {
		t.Fatalf("empty algorithm should default to HS256: %v", err)
	}
}

func TestIssueAndDecodeRoundTrip(t *testing.T) {
	codec, err := NewTokenCodec("secret", "HS256")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	token, issued, err := codec.Issue("user-1", "a@x.com", TokenKindAccess, 30*time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if issued.ID == "" {
		t.Fatal("issued claims should carry a jti")
	}

	claims, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject = %q", claims.Subject)
	}
	if claims.Email != "a@x.com" {
		t.Fatalf("email = %q", claims.Email)
	}
	if claims.Kind != TokenKindAccess {
		t.Fatalf("kind = %q", claims.Kind)
	}
	if claims.ID != issued.ID {
		t.Fatalf("jti mismatch: %q vs %q", claims.ID, issued.ID)
	}
	if claims.ExpiresAt == nil {
		t.Fatal("expires_at missing")
	}
}

func TestIssueGeneratesDistinctJTIs(t *testing.T) {
	codec, _ := NewTokenCodec("secret", "HS256")

	_, first, err := codec.Issue("user-1", "a@x.com", TokenKindRefresh, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	_, second, err := codec.Issue("user-1", "a@x.com", TokenKindRefresh, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("consecutive issuances must carry distinct jtis")
	}
}

func TestIssueRejectsBadInput(t *testing.T) {
	codec, _ := NewTokenCodec("secret", "HS256")

	if _, _, err := codec.Issue("", "a@x.com", TokenKindAccess, time.Hour); err == nil {
		t.Fatal("expected error for empty subject")
	}
	if _, _, err := codec.Issue("user-1", "a@x.com", TokenKindAccess, 0); err == nil {
		t.Fatal("expected error for non-positive ttl")
	}
}

func TestDecodeExpiredToken(t *testing.T) {
	codec, _ := NewTokenCodec("secret", "HS256")

	token, _, err := codec.Issue("user-1", "a@x.com", TokenKindAccess, time.Nanosecond)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	_, err = codec.Decode(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewTokenCodec("secret-a", "HS256")
	verifier, _ := NewTokenCodec("secret-b", "HS256")

	token, _, err := issuer.Issue("user-1", "a@x.com", TokenKindAccess, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := verifier.Decode(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestDecodeRejectsWrongAlgorithm(t *testing.T) {
	issuer, _ := NewTokenCodec("secret", "HS512")
	verifier, _ := NewTokenCodec("secret", "HS256")

	token, _, err := issuer.Issue("user-1", "a@x.com", TokenKindAccess, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := verifier.Decode(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	codec, _ := NewTokenCodec("secret", "HS256")

	for _, token := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if _, err := codec.Decode(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("Decode(%q) = %v, want ErrTokenInvalid", token, err)
		}
	}
}
