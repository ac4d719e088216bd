package repository

import (
	"context"
	"testing"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/apperr"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func TestRedisStoreGetAbsent(t *testing.T) {
	store := newTestRedisStore(t)

	_, err := store.Get(context.Background(), "nobody@example.com")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestRedisStorePutMergesAgainstStored(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	first := domain.NewLead("Buyer@Example.com", now)
	first.Profile["industry"] = "retail"
	if _, err := store.Put(ctx, first); err != nil {
		t.Fatalf("first put: %v", err)
	}

	second := domain.NewLead("buyer@example.com", now)
	second.Profile["website"] = "https://buyer.example.com"
	merged, err := store.Put(ctx, second)
	if err != nil {
		t.Fatalf("second put: %v", err)
	}

	if merged.Profile["industry"] != "retail" || merged.Profile["website"] != "https://buyer.example.com" {
		t.Fatalf("merge lost keys: %v", merged.Profile)
	}

	stored, err := store.Get(ctx, "buyer@example.com")
	if err != nil {
		t.Fatalf("get after put: %v", err)
	}
	if stored.Profile["industry"] != "retail" {
		t.Fatalf("stored record missing merged key: %v", stored.Profile)
	}
}

func TestRedisStoreKeyNormalization(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	lead := domain.NewLead("  MixedCase@Example.COM ", time.Now())
	if _, err := store.Put(ctx, lead); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "mixedcase@example.com")
	if err != nil {
		t.Fatalf("get by normalized key: %v", err)
	}
	if got.Email != "mixedcase@example.com" {
		t.Fatalf("stored email = %q", got.Email)
	}
}

func TestRedisStorePutRejectsMissingKey(t *testing.T) {
	store := newTestRedisStore(t)

	_, err := store.Put(context.Background(), domain.NewLead("   ", time.Now()))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRedisStoreList(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if _, err := store.Put(ctx, domain.NewLead(email, time.Now())); err != nil {
			t.Fatalf("put %s: %v", email, err)
		}
	}

	leads, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("list returned %d leads, want 2", len(leads))
	}
}
