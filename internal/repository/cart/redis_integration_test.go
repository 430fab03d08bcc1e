package cart

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"healthmall/internal/domain"
	"github.com/redis/go-redis/v9"
)

func testRedis(ctx context.Context, t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("no test redis available at %s: %v", addr, err)
	}
	return client
}

func TestRedisStore_Integration(t *testing.T) {
	ctx := context.Background()
	client := testRedis(ctx, t)
	defer client.Close()

	store := NewRedis(client, time.Minute)
	const token = "itest-guest-token"
	if err := store.Clear(ctx, token); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if err := store.Upsert(ctx, token, UpsertInput{PackageID: 1, Quantity: 1, SamplingMethod: domain.SamplingSelf}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := store.Upsert(ctx, token, UpsertInput{PackageID: 1, Quantity: 2, SamplingMethod: domain.SamplingSelf}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if err := store.Upsert(ctx, token, UpsertInput{PackageID: 2, Quantity: 1, SamplingMethod: domain.SamplingPickup}); err != nil {
		t.Fatalf("third upsert: %v", err)
	}

	lines, err := store.Lines(ctx, token)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].PackageID != 1 || lines[0].Quantity != 3 {
		t.Fatalf("repeated add should increment, got %+v", lines[0])
	}

	ttl, err := client.TTL(ctx, guestCartKey(token)).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected sliding ttl within a minute, got %v", ttl)
	}

	qty := 7
	if err := store.Update(ctx, token, "1", UpdateInput{Quantity: &qty}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Update(ctx, token, "404", UpdateInput{Quantity: &qty}); !errors.Is(err, domain.ErrCartLineNotFound) {
		t.Fatalf("expected ErrCartLineNotFound, got %v", err)
	}

	if err := store.Remove(ctx, token, "2"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	count, err := store.Count(ctx, token)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 line, got %d", count)
	}

	if err := store.Clear(ctx, token); err != nil {
		t.Fatalf("clear: %v", err)
	}
	lines, err = store.Lines(ctx, token)
	if err != nil {
		t.Fatalf("lines after clear: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expired or cleared cart should read empty, got %d lines", len(lines))
	}
}
