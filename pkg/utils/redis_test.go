package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLockArgumentChecks(t *testing.T) {
	ctx := context.Background()
	// Never dialed: argument checks fail before any command is sent.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	cases := []struct {
		name string
		rdb  *redis.Client
		key  string
		ttl  time.Duration
	}{
		{"nil client", nil, "k", time.Second},
		{"empty key", rdb, "", time.Second},
		{"zero ttl", rdb, "k", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := AcquireLock(ctx, tc.rdb, tc.key, tc.ttl)
			if err == nil || token != "" {
				t.Fatalf("expected rejection, got token=%q err=%v", token, err)
			}
		})
	}

	if _, err := ReleaseLock(ctx, nil, "k", "t"); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := ReleaseLock(ctx, rdb, "", "t"); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := ReleaseLock(ctx, rdb, "k", ""); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error without addr")
	}
}

func TestRedisConfigDefaults(t *testing.T) {
	cfg := RedisConfig{Addr: "x", PoolSize: 3}.withDefaults()
	if cfg.PoolSize != 3 || cfg.PingTimeout != 2*time.Second || cfg.ReadTimeout != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLock_OwnerTokenRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")
	ctx := context.Background()

	rdb, err := OpenRedis(ctx, RedisConfig{Addr: mr.Addr(), Password: "secret"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rdb.Close()

	token, err := AcquireLock(ctx, rdb, "lock:CF1", time.Minute)
	if err != nil || token == "" {
		t.Fatalf("acquire: token=%q err=%v", token, err)
	}
	if _, err := AcquireLock(ctx, rdb, "lock:CF1", time.Minute); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
	if mr.TTL("lock:CF1") != time.Minute {
		t.Fatalf("expected ttl set, got %v", mr.TTL("lock:CF1"))
	}

	released, err := ReleaseLock(ctx, rdb, "lock:CF1", "stale-token")
	if err != nil || released {
		t.Fatalf("stale token must not release: released=%v err=%v", released, err)
	}
	if got, _ := mr.Get("lock:CF1"); got != token {
		t.Fatalf("expected lock still owned by %q, got %q", token, got)
	}

	released, err = ReleaseLock(ctx, rdb, "lock:CF1", token)
	if err != nil || !released {
		t.Fatalf("owner release: released=%v err=%v", released, err)
	}
	if mr.Exists("lock:CF1") {
		t.Fatalf("expected key deleted")
	}
}

func TestOpenRedis_WrongPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")
	if _, err := OpenRedis(context.Background(), RedisConfig{Addr: mr.Addr(), Password: "nope"}); err == nil {
		t.Fatalf("expected ping to fail with a wrong password")
	}
}
