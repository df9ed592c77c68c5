package aaa

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/campuscore/aaa/audit"
)

// The canonical lifecycle: an admin registers, logs in, works, and then a
// stolen refresh token surfaces. One rotation wins, the reuse takes the
// family down, and the ledger tells the whole story in order.
func TestTokenLifecycleEndToEnd(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	user, err := engine.Register(ctx, "alice@campus.edu", "correct-horse-battery", RoleAdmin)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	pair, err := engine.Login(ctx, "alice@campus.edu", "correct-horse-battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := engine.Authorize(ctx, pair.AccessToken, "write:users"); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	// The legitimate client rotates; later the stolen copy of the same
	// refresh token shows up.
	rotated, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshReuse) {
		t.Fatalf("expected ErrRefreshReuse, got %v", err)
	}

	// The legitimate client's rotated pair died with the family.
	if _, err := engine.Validate(ctx, rotated.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}

	// The login access token died with the family too; a fresh login
	// opens a new family for the audit read.
	fresh, err := engine.Login(ctx, "alice@campus.edu", "correct-horse-battery")
	if err != nil {
		t.Fatalf("re-login: %v", err)
	}
	records, err := engine.AuditQuery(ctx, fresh.AccessToken, AuditFilter{Actor: user.ID})
	if err != nil {
		t.Fatalf("AuditQuery: %v", err)
	}
	var actions []string
	for _, rec := range records {
		actions = append(actions, rec.Action)
	}
	want := []string{ActionRegister, ActionLogin, ActionTokenRefresh, ActionReuseDetected, ActionLogin}
	if len(actions) != len(want) {
		t.Fatalf("actions %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("actions %v, want %v", actions, want)
		}
	}
}

func TestAuditMirrorPreservesOrder(t *testing.T) {
	sink := audit.NewChannelSink(64)
	cfg := testConfig()
	cfg.Audit.MirrorEnabled = true

	engine, err := New().WithConfig(cfg).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx := context.Background()
	if _, err := engine.Register(ctx, "erin@campus.edu", "password-of-erin", RoleStaff); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := engine.Login(ctx, "erin@campus.edu", "password-of-erin"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	engine.Close()

	var mirrored []audit.Record
	for rec := range sink.Records() {
		mirrored = append(mirrored, rec)
		if len(mirrored) == 2 {
			break
		}
	}
	if mirrored[0].Action != ActionRegister || mirrored[1].Action != ActionLogin {
		t.Fatalf("mirror out of order: %s, %s", mirrored[0].Action, mirrored[1].Action)
	}
	if mirrored[0].ID >= mirrored[1].ID {
		t.Fatalf("mirror ids out of order: %d, %d", mirrored[0].ID, mirrored[1].ID)
	}
	if engine.AuditDropped() != 0 {
		t.Fatalf("dropped %d mirrored records", engine.AuditDropped())
	}
}

func TestEngineWithRedisBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engine, err := New().WithConfig(testConfig()).WithRedis(client).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	ctx := context.Background()
	first := loginTestUser(t, engine, "frank@campus.edu")

	second, err := engine.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := engine.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrRefreshReuse) {
		t.Fatalf("expected ErrRefreshReuse, got %v", err)
	}
	if _, err := engine.Validate(ctx, second.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}

	if err := engine.Revoke(ctx, first.AccessToken); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := engine.Validate(ctx, first.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked after logout, got %v", err)
	}
}
