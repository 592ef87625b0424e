package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestMemoryRevocationStore(t *testing.T) {
	store := NewMemoryRevocationStore()
	defer store.Close()
	ctx := context.Background()

	if store.IsRevoked(ctx, "jti-1") {
		t.Error("expected unknown jti to not be revoked")
	}
	store.Revoke(ctx, "jti-1", time.Now().Add(time.Hour))
	if !store.IsRevoked(ctx, "jti-1") {
		t.Error("expected jti-1 to be revoked")
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 entry, got %d", store.Count())
	}
}

func TestMemoryRevocationStore_Cleanup(t *testing.T) {
	store := NewMemoryRevocationStore()
	defer store.Close()
	ctx := context.Background()

	now := time.Now()
	store.Revoke(ctx, "old", now.Add(-time.Minute))
	store.Revoke(ctx, "fresh", now.Add(time.Hour))
	store.cleanup(now)

	if store.IsRevoked(ctx, "old") {
		t.Error("expected expired entry to be removed")
	}
	if !store.IsRevoked(ctx, "fresh") {
		t.Error("expected live entry to remain")
	}
}

func TestMemoryRevocationStore_CloseTwice(t *testing.T) {
	store := NewMemoryRevocationStore()
	store.Close()
	store.Close()
}

func TestMemoryRevocationStore_Concurrent(t *testing.T) {
	store := NewMemoryRevocationStore()
	defer store.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Revoke(ctx, "shared", time.Now().Add(time.Hour))
		}()
		go func() {
			defer wg.Done()
			store.IsRevoked(ctx, "shared")
		}()
	}
	wg.Wait()
	if !store.IsRevoked(ctx, "shared") {
		t.Error("expected shared to be revoked")
	}
}

type fakeRedisKV struct {
	keys      map[string]time.Duration
	existsErr error
}

func (f *fakeRedisKV) Set(_ context.Context, key string, _ interface{}, exp time.Duration) *goredis.StatusCmd {
	f.keys[key] = exp
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeRedisKV) Exists(_ context.Context, keys ...string) *goredis.IntCmd {
	if f.existsErr != nil {
		return goredis.NewIntResult(0, f.existsErr)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func TestRedisRevocationStore(t *testing.T) {
	kv := &fakeRedisKV{keys: map[string]time.Duration{}}
	store := NewRedisRevocationStore(kv, zerolog.Nop())
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()

	if err := store.Revoke(ctx, "abc", fixed.Add(10*time.Minute)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl := kv.keys["revoked:abc"]; ttl != 10*time.Minute {
		t.Errorf("expected 10m ttl, got %s", ttl)
	}
	if !store.IsRevoked(ctx, "abc") {
		t.Error("expected abc to be revoked")
	}

	if err := store.Revoke(ctx, "expired", fixed.Add(-time.Second)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := kv.keys["revoked:expired"]; ok {
		t.Error("expected already-expired token to be skipped")
	}
}

func TestRedisRevocationStore_FailsOpen(t *testing.T) {
	kv := &fakeRedisKV{keys: map[string]time.Duration{}, existsErr: errors.New("conn refused")}
	store := NewRedisRevocationStore(kv, zerolog.Nop())
	if store.IsRevoked(context.Background(), "abc") {
		t.Error("expected lookup failure to report not revoked")
	}
}
