package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, cfg SlidingWindowConfig) (*RateLimitStore, *miniredis.Miniredis) {
	t.Helper()

	srv, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(srv.Close)

	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRateLimitStore(client, cfg), srv
}

func TestRecordAndCount(t *testing.T) {
	store, _ := newTestStore(t, SlidingWindowConfig{KeyPrefix: "iot:rate-limit"})
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := store.RecordAttempt(ctx, "login:a@x.com", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("RecordAttempt: %v", err)
		}
	}

	count, err := store.CountAttempts(ctx, "login:a@x.com", time.Minute, now.Add(3*time.Second))
	if err != nil {
		t.Fatalf("CountAttempts: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestCountWindowBoundaries(t *testing.T) {
	store, _ := newTestStore(t, SlidingWindowConfig{KeyPrefix: "rl"})
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_ = store.RecordAttempt(ctx, "k", now.Add(-2*time.Minute))
	_ = store.RecordAttempt(ctx, "k", now.Add(-30*time.Second))
	_ = store.RecordAttempt(ctx, "k", now)

	count, err := store.CountAttempts(ctx, "k", time.Minute, now)
	if err != nil {
		t.Fatalf("CountAttempts: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestTrimWindow(t *testing.T) {
	store, _ := newTestStore(t, SlidingWindowConfig{KeyPrefix: "rl"})
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_ = store.RecordAttempt(ctx, "k", now.Add(-5*time.Minute))
	_ = store.RecordAttempt(ctx, "k", now.Add(-10*time.Second))

	if err := store.TrimWindow(ctx, "k", time.Minute, now); err != nil {
		t.Fatalf("TrimWindow: %v", err)
	}

	count, err := store.CountAttempts(ctx, "k", time.Hour, now)
	if err != nil {
		t.Fatalf("CountAttempts: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after trim = %d, want 1", count)
	}
}

func TestOldestAttemptInWindow(t *testing.T) {
	store, _ := newTestStore(t, SlidingWindowConfig{KeyPrefix: "rl"})
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if _, found, err := store.OldestAttempt(ctx, "k", time.Minute, now); err != nil || found {
		t.Fatalf("empty key: found=%v err=%v", found, err)
	}

	_ = store.RecordAttempt(ctx, "k", now.Add(-2*time.Minute))
	_ = store.RecordAttempt(ctx, "k", now.Add(-40*time.Second))
	_ = store.RecordAttempt(ctx, "k", now.Add(-10*time.Second))

	oldest, found, err := store.OldestAttempt(ctx, "k", time.Minute, now)
	if err != nil {
		t.Fatalf("OldestAttempt: %v", err)
	}
	if !found {
		t.Fatal("expected an attempt inside the window")
	}
	if want := now.Add(-40 * time.Second); !oldest.Equal(want) {
		t.Fatalf("oldest = %v, want %v", oldest, want)
	}
}

func TestCheckAndRecordEnforcesLimit(t *testing.T) {
	store, _ := newTestStore(t, SlidingWindowConfig{KeyPrefix: "rl", TTL: 2 * time.Minute})
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		allowed, err := store.CheckAndRecord(ctx, "k", time.Minute, 3, now.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("CheckAndRecord: %v", err)
		}
		if !allowed {
			t.Fatalf("attempt %d denied below the limit", i+1)
		}
	}

	allowed, err := store.CheckAndRecord(ctx, "k", time.Minute, 3, now.Add(3*time.Second))
	if err != nil {
		t.Fatalf("CheckAndRecord: %v", err)
	}
	if allowed {
		t.Fatal("attempt over the limit admitted")
	}

	// The denied attempt must not consume a slot.
	count, err := store.CountAttempts(ctx, "k", time.Minute, now.Add(3*time.Second))
	if err != nil {
		t.Fatalf("CountAttempts: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	// A slot frees up once the oldest attempt ages out of the window.
	allowed, err = store.CheckAndRecord(ctx, "k", time.Minute, 3, now.Add(61*time.Second))
	if err != nil {
		t.Fatalf("CheckAndRecord: %v", err)
	}
	if !allowed {
		t.Fatal("attempt denied after the window slid")
	}
}

func TestCheckAndRecordRejectsBadInput(t *testing.T) {
	store, _ := newTestStore(t, SlidingWindowConfig{})
	ctx := context.Background()

	if _, err := store.CheckAndRecord(ctx, "k", 0, 5, time.Now()); err == nil {
		t.Fatal("expected error for non-positive window")
	}
	if _, err := store.CheckAndRecord(ctx, "k", time.Minute, 0, time.Now()); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
}

func TestInvalidWindowRejected(t *testing.T) {
	store, _ := newTestStore(t, SlidingWindowConfig{})
	ctx := context.Background()
	now := time.Now()

	if _, err := store.CountAttempts(ctx, "k", 0, now); err == nil {
		t.Fatal("CountAttempts should reject non-positive window")
	}
	if err := store.TrimWindow(ctx, "k", 0, now); err == nil {
		t.Fatal("TrimWindow should reject non-positive window")
	}
	if _, _, err := store.OldestAttempt(ctx, "k", 0, now); err == nil {
		t.Fatal("OldestAttempt should reject non-positive window")
	}
}

func TestKeyPrefixApplied(t *testing.T) {
	store, srv := newTestStore(t, SlidingWindowConfig{KeyPrefix: "iot:rate-limit"})
	ctx := context.Background()

	if err := store.RecordAttempt(ctx, "login:a@x.com", time.Now()); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	if !srv.Exists("iot:rate-limit:login:a@x.com") {
		t.Fatal("expected prefixed key in redis")
	}
}

func TestTTLApplied(t *testing.T) {
	store, srv := newTestStore(t, SlidingWindowConfig{KeyPrefix: "rl", TTL: 2 * time.Minute})
	ctx := context.Background()

	if err := store.RecordAttempt(ctx, "k", time.Now()); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	if ttl := srv.TTL("rl:k"); ttl != 2*time.Minute {
		t.Fatalf("ttl = %v, want 2m", ttl)
	}
}
