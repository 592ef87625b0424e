package auth

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RevocationStore records logged-out tokens until they would have expired.
type RevocationStore interface {
	RevocationChecker
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// MemoryRevocationStore keeps revoked token ids in process memory. Entries are
// cleaned up once the token is past its natural expiry.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	done    chan struct{}
	once    sync.Once
}

// NewMemoryRevocationStore starts a store with a background cleanup loop.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	s := &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		done:    make(chan struct{}),
	}
	go s.cleanupLoop(5 * time.Minute)
	return s
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = expiresAt
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[jti]
	return ok
}

// Count returns the number of tracked revocations.
func (s *MemoryRevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the cleanup loop. Safe to call more than once.
func (s *MemoryRevocationStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryRevocationStore) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.cleanup(now)
		}
	}
}

func (s *MemoryRevocationStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti, exp := range s.entries {
		if now.After(exp) {
			delete(s.entries, jti)
		}
	}
}

// redisKV is the slice of the go-redis client the revocation store uses.
type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Exists(ctx context.Context, keys ...string) *goredis.IntCmd
}

// RedisRevocationStore shares revocations across replicas. Keys expire with
// the token.
type RedisRevocationStore struct {
	rdb    redisKV
	logger zerolog.Logger
	now    func() time.Time
}

func NewRedisRevocationStore(rdb redisKV, logger zerolog.Logger) *RedisRevocationStore {
	return &RedisRevocationStore{rdb: rdb, logger: logger, now: time.Now}
}

func revokedKey(jti string) string { return "revoked:" + jti }

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, revokedKey(jti), 1, ttl).Err()
}

// IsRevoked fails open when Redis is unreachable; the error is logged.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) bool {
	n, err := s.rdb.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		s.logger.Warn().Err(err).Str("jti", jti).Msg("revocation lookup failed")
		return false
	}
	return n > 0
}
