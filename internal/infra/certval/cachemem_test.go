package certval

import (
	"context"
	"testing"
	"time"

	"credlink/internal/domain"
)

func TestMemoryCache_PutGet(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	result := domain.ChainValidationResult{Valid: true, Fingerprint: "fp-1"}

	if err := cache.Put(ctx, "fp-1", result, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := cache.Get(ctx, "fp-1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !got.Valid || got.Fingerprint != "fp-1" {
		t.Fatalf("unexpected cached value: %+v", got)
	}

	// Returned value is a copy; mutating it must not poison the cache.
	got.Valid = false
	again, ok, _ := cache.Get(ctx, "fp-1")
	if !ok || !again.Valid {
		t.Fatal("cached value was mutated through a returned copy")
	}
}

func TestMemoryCache_MissOnUnknownKey(t *testing.T) {
	cache := NewMemoryCache()
	if _, ok, err := cache.Get(context.Background(), "absent"); ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	if err := cache.Put(ctx, "fp", domain.ChainValidationResult{Valid: true}, 10*time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok, _ := cache.Get(ctx, "fp"); ok {
		t.Fatal("expired entry served")
	}
}
