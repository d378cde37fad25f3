package transfer

import (
	"context"
	"errors"
	"sync"
	"time"

	"telecom-bridge/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// ErrTransferInProgress means another attended transfer holds the
// conference.
var ErrTransferInProgress = errors.New("transfer: another transfer is in progress for this conference")

// Guard serializes attended transfers per conference. The returned release
// func must be called once the transfer ends.
type Guard interface {
	Acquire(ctx context.Context, conferenceID string) (release func(), err error)
}

// RedisGuard holds a Redis lock per conference, shared by every process.
// The TTL bounds how long a crashed holder can block.
type RedisGuard struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisGuard(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisGuard{rdb: rdb, ttl: ttl, prefix: "transfer:conference:"}
}

func (g *RedisGuard) Acquire(ctx context.Context, conferenceID string) (func(), error) {
	key := g.prefix + conferenceID
	token, err := utils.AcquireLock(ctx, g.rdb, key, g.ttl)
	if errors.Is(err, utils.ErrLockHeld) {
		return nil, ErrTransferInProgress
	}
	if err != nil {
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even when the request context is gone.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, _ = utils.ReleaseLock(ctx, g.rdb, key, token)
		})
	}, nil
}

// LocalGuard is the in-process Guard used without Redis.
type LocalGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewLocalGuard() *LocalGuard { return &LocalGuard{busy: map[string]struct{}{}} }

func (g *LocalGuard) Acquire(ctx context.Context, conferenceID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.busy[conferenceID]; ok {
		return nil, ErrTransferInProgress
	}
	g.busy[conferenceID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, conferenceID)
			g.mu.Unlock()
		})
	}, nil
}
