package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultRedisLockTTL   = 10 * time.Second
	defaultRedisLockRetry = 25 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lease never releases a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type redisRankLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	logger *zap.Logger
}

// NewRedisRankLocker leases keys with SET NX PX. ttl bounds how long a crashed
// holder can block others; zero means 10s. Failed releases are logged to
// logger, which may be nil.
func NewRedisRankLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) RankLocker {
	if ttl <= 0 {
		ttl = defaultRedisLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisRankLocker{client: client, ttl: ttl, retry: defaultRedisLockRetry, logger: logger}
}

func (l *redisRankLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return func() { l.release(key, token) }, nil
}

// release drops the lease. On failure the key stays held until its ttl runs
// out.
func (l *redisRankLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.ttl)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.logger.Warn("release rank lock",
			zap.String("key", key),
			zap.Duration("expires_in", l.ttl),
			zap.Error(err),
		)
	}
}
