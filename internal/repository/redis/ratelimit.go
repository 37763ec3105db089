package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	redisx "github.com/kirinyoku/showbook/internal/redis"
	"github.com/redis/go-redis/v9"
)

// SlidingWindowLimiter admits at most limit requests per client within any
// window-long interval. Each client has a sorted set of its admitted
// requests scored by arrival time in milliseconds; state lives in Redis, so
// the limit holds across instances.
type SlidingWindowLimiter struct {
	rdb    *redis.Client
	scope  string
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewSlidingWindowLimiter(
	rdb *redis.Client,
	scope string,
	limit int,
	window time.Duration,
) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		rdb:    rdb,
		scope:  scope,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// Allow records a request for client and reports whether it is within the
// limit. A rejected request is not counted. retryAfter is how long until the
// oldest admitted request leaves the window.
//
// Returns:
//   - allowed: whether the request may proceed.
//   - current: requests in the window, this one included.
//   - retryAfter: zero when allowed.
func (l *SlidingWindowLimiter) Allow(
	ctx context.Context,
	client string,
) (allowed bool, current int64, retryAfter time.Duration, err error) {
	key := redisx.KeyRateLimit(l.scope, client)
	now := l.now().UnixMilli()
	win := l.window.Milliseconds()
	member := uuid.NewString()

	var (
		card   *redis.IntCmd
		oldest *redis.ZSliceCmd
	)

	_, err = l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(now-win, 10))
		p.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: member})
		card = p.ZCard(ctx, key)
		oldest = p.ZRangeWithScores(ctx, key, 0, 0)
		p.PExpire(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return false, 0, 0, err
	}

	current = card.Val()
	if current <= l.limit {
		return true, current, 0, nil
	}

	if err := l.rdb.ZRem(ctx, key, member).Err(); err != nil {
		return false, current, 0, err
	}

	retryAfter = l.window
	if zs := oldest.Val(); len(zs) == 1 {
		retryAfter = time.Duration(win-(now-int64(zs[0].Score))) * time.Millisecond
	}
	if retryAfter < 0 {
		retryAfter = 0
	}

	return false, current, retryAfter, nil
}
