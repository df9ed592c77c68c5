package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryAddAndContains(t *testing.T) {
	m := NewMemory(time.Hour)
	defer m.Close()

	ctx := context.Background()
	if err := m.Add(ctx, "jti-1", ReasonLogout, time.Minute); err != nil {
		t.Fatalf("add: %v", err)
	}

	ok, err := m.Contains(ctx, "jti-1")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if !ok {
		t.Fatal("expected jti-1 to be revoked")
	}

	ok, err = m.Contains(ctx, "jti-unknown")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if ok {
		t.Fatal("unknown jti must not read as revoked")
	}

	reason, ok := m.Reason("jti-1")
	if !ok || reason != ReasonLogout {
		t.Fatalf("expected reason %q, got %q (ok=%v)", ReasonLogout, reason, ok)
	}
}

func TestMemoryEntrySelfExpires(t *testing.T) {
	m := NewMemory(time.Hour)
	defer m.Close()

	ctx := context.Background()
	if err := m.Add(ctx, "jti-short", ReasonAdmin, 20*time.Millisecond); err != nil {
		t.Fatalf("add: %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	ok, err := m.Contains(ctx, "jti-short")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if ok {
		t.Fatal("entry past its ttl must not read as revoked")
	}
}

func TestMemoryIgnoresNonPositiveTTL(t *testing.T) {
	m := NewMemory(time.Hour)
	defer m.Close()

	ctx := context.Background()
	if err := m.Add(ctx, "jti-dead", ReasonLogout, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if m.Len() != 0 {
		t.Fatal("non-positive ttl must not store an entry")
	}
}

func TestMemorySweepRemovesExpired(t *testing.T) {
	m := NewMemory(10 * time.Millisecond)
	defer m.Close()

	ctx := context.Background()
	if err := m.Add(ctx, "jti-sweep", ReasonLogout, 5*time.Millisecond); err != nil {
		t.Fatalf("add: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for m.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper did not remove expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRedisRegistry(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	reg := NewRedis(client, "")
	ctx := context.Background()

	if err := reg.Add(ctx, "jti-r1", ReasonReuseDetected, time.Minute); err != nil {
		t.Fatalf("add: %v", err)
	}

	ok, err := reg.Contains(ctx, "jti-r1")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if !ok {
		t.Fatal("expected jti-r1 to be revoked")
	}

	// miniredis advances TTLs manually.
	srv.FastForward(2 * time.Minute)

	ok, err = reg.Contains(ctx, "jti-r1")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if ok {
		t.Fatal("expired redis entry must not read as revoked")
	}
}
