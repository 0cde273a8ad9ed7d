package memory

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/alvarohurtadobo/iot-backend/internal/core/port"
)

const shardCount = 32

// RateLimitStore keeps sliding-window attempt timestamps in process memory.
// The map is sharded by key hash with one mutex per shard so contention on
// one identifier never blocks unrelated identifiers. State is not persisted
// and resets on restart: rate limiting here is a DoS mitigation, not a
// security boundary.
type RateLimitStore struct {
	shards [shardCount]*shard
}

type shard struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

// NewRateLimitStore constructs an empty in-memory store.
func NewRateLimitStore() *RateLimitStore {
	store := &RateLimitStore{}
	for i := range store.shards {
		store.shards[i] = &shard{entries: make(map[string][]time.Time)}
	}
	return store
}

func (s *RateLimitStore) shardFor(identifier string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identifier))
	return s.shards[h.Sum32()%shardCount]
}

// CheckAndRecord trims the window, admits the attempt if capacity remains,
// and records it, all under one shard lock: two concurrent attempts for the
// same identifier cannot both take the last slot. Denied attempts are not
// recorded.
func (s *RateLimitStore) CheckAndRecord(_ context.Context, identifier string, window time.Duration, limit int, at time.Time) (bool, error) {
	sh := s.shardFor(identifier)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.trimLocked(identifier, window, at)
	if len(sh.entries[identifier]) >= limit {
		return false, nil
	}

	sh.entries[identifier] = append(sh.entries[identifier], at)
	return true, nil
}

// TrimWindow removes attempts older than the provided window relative to
// reference time, dropping the key entirely when nothing remains.
func (s *RateLimitStore) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	sh := s.shardFor(identifier)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.trimLocked(identifier, window, reference)
	return nil
}

// CountAttempts returns how many attempts occurred within the window ending
// at reference time.
func (s *RateLimitStore) CountAttempts(_ context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	sh := s.shardFor(identifier)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	threshold := reference.Add(-window)
	count := 0
	for _, at := range sh.entries[identifier] {
		if at.After(threshold) && !at.After(reference) {
			count++
		}
	}
	return count, nil
}

// RecordAttempt stores the provided timestamp for the identifier.
func (s *RateLimitStore) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	sh := s.shardFor(identifier)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.entries[identifier] = append(sh.entries[identifier], at)
	return nil
}

// OldestAttempt returns the oldest attempt remaining inside the active window.
func (s *RateLimitStore) OldestAttempt(_ context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	sh := s.shardFor(identifier)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	threshold := reference.Add(-window)
	var oldest time.Time
	found := false
	for _, at := range sh.entries[identifier] {
		if !at.After(threshold) || at.After(reference) {
			continue
		}
		if !found || at.Before(oldest) {
			oldest = at
			found = true
		}
	}
	return oldest, found, nil
}

func (sh *shard) trimLocked(identifier string, window time.Duration, reference time.Time) {
	attempts, ok := sh.entries[identifier]
	if !ok {
		return
	}

	threshold := reference.Add(-window)
	kept := attempts[:0]
	for _, at := range attempts {
		if at.After(threshold) {
			kept = append(kept, at)
		}
	}

	if len(kept) == 0 {
		delete(sh.entries, identifier)
		return
	}
	sh.entries[identifier] = kept
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)
