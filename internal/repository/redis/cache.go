package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisx "github.com/kirinyoku/showbook/internal/redis"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

const (
	instrumentationName = "github.com/kirinyoku/showbook/internal/repository/redis"

	// unlinkBatch bounds the keys sent in one UNLINK while invalidating.
	unlinkBatch = 100
)

var errCacheType = errors.New("cache: unexpected value type")

// Cache stores JSON values with a TTL. Reads go through GetOrSetJSON, which
// falls back to the loader whenever Redis misses or fails, so an unavailable
// cache slows listings down but never breaks them.
type Cache struct {
	rdb     *redis.Client
	sf      singleflight.Group
	lookups metric.Int64Counter
}

func New(client *redis.Client) *Cache {
	lookups, err := otel.Meter(instrumentationName).Int64Counter(
		"showbook.cache.lookups",
		metric.WithDescription("Cache lookups by result."),
	)
	if err != nil {
		otel.Handle(err)
	}

	return &Cache{rdb: client, lookups: lookups}
}

func (c *Cache) record(ctx context.Context, result string) {
	if c.lookups != nil {
		c.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

// GetJSON decodes the value stored at key. The bool reports a hit.
func GetJSON[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var zero T

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, fmt.Errorf("decode %s: %w", key, err)
	}

	return v, true, nil
}

func SetJSON(ctx context.Context, c *Cache, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// GetOrSetJSON returns the cached value at key, or loads, stores and returns
// it. Concurrent misses on one key share a single loader call. Only a loader
// error is returned; Redis errors are treated as misses.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	var zero T

	v, ok, err := GetJSON[T](ctx, c, key)
	switch {
	case err != nil:
		c.record(ctx, "error")
	case ok:
		c.record(ctx, "hit")
		return v, nil
	default:
		c.record(ctx, "miss")
	}

	vAny, err, _ := c.sf.Do(key, func() (any, error) {
		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		_ = SetJSON(ctx, c, key, loaded, ttl)
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}

	loaded, ok := vAny.(T)
	if !ok {
		return zero, errCacheType
	}

	return loaded, nil
}

// InvalidateCity drops every cached daily listing of a city.
func (c *Cache) InvalidateCity(ctx context.Context, city string) error {
	iter := c.rdb.Scan(ctx, 0, redisx.KeyCityShowsPattern(city), unlinkBatch).Iterator()

	batch := make([]string, 0, unlinkBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == unlinkBatch {
			if err := c.rdb.Unlink(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(batch) == 0 {
		return nil
	}

	return c.rdb.Unlink(ctx, batch...).Err()
}
