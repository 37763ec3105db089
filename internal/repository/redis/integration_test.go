//go:build integration

package redis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	redisx "github.com/kirinyoku/showbook/internal/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const cacheImageName = "redis:7"

type RedisSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	rdb       *redis.Client
}

func TestRedisSuite(t *testing.T) {
	suite.Run(t, new(RedisSuite))
}

func (s *RedisSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, cacheImageName)
	s.Require().NoError(err)
	s.container = container

	host, err := container.Host(ctx)
	s.Require().NoError(err)

	port, err := container.MappedPort(ctx, "6379")
	s.Require().NoError(err)

	rdb, err := redisx.New(ctx, redisx.Config{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	s.Require().NoError(err)
	s.rdb = rdb
}

func (s *RedisSuite) TearDownSuite() {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if s.container != nil {
		if err := testcontainers.TerminateContainer(s.container); err != nil {
			s.T().Logf("failed to terminate container: %s", err)
		}
	}
}

func (s *RedisSuite) SetupTest() {
	s.Require().NoError(s.rdb.FlushDB(context.Background()).Err())
}

func (s *RedisSuite) TestGetOrSetJSONLoadsOnce() {
	ctx := context.Background()
	cache := New(s.rdb)
	key := redisx.KeyCityShows("delhi", "2026-03-14")

	var loads atomic.Int32
	loader := func(ctx context.Context) ([]string, error) {
		loads.Add(1)
		return []string{"Dune"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := GetOrSetJSON(ctx, cache, key, time.Minute, loader)
			s.NoError(err)
			s.Equal([]string{"Dune"}, v)
		}()
	}
	wg.Wait()

	v, err := GetOrSetJSON(ctx, cache, key, time.Minute, loader)
	s.Require().NoError(err)
	s.Equal([]string{"Dune"}, v)
	s.LessOrEqual(loads.Load(), int32(2))
}

func (s *RedisSuite) TestInvalidateCity() {
	ctx := context.Background()
	cache := New(s.rdb)

	s.Require().NoError(SetJSON(ctx, cache, redisx.KeyCityShows("delhi", "2026-03-14"), []string{"a"}, time.Minute))
	s.Require().NoError(SetJSON(ctx, cache, redisx.KeyCityShows("delhi", "2026-03-15"), []string{"b"}, time.Minute))
	s.Require().NoError(SetJSON(ctx, cache, redisx.KeyCityShows("mumbai", "2026-03-14"), []string{"c"}, time.Minute))

	s.Require().NoError(cache.InvalidateCity(ctx, "delhi"))

	_, ok, err := GetJSON[[]string](ctx, cache, redisx.KeyCityShows("delhi", "2026-03-14"))
	s.Require().NoError(err)
	s.False(ok)

	_, ok, err = GetJSON[[]string](ctx, cache, redisx.KeyCityShows("mumbai", "2026-03-14"))
	s.Require().NoError(err)
	s.True(ok)

	s.NoError(cache.InvalidateCity(ctx, "pune"))
}

func (s *RedisSuite) TestIdempotencyStore() {
	ctx := context.Background()
	store := NewIdempotencyStore(s.rdb, time.Hour)
	key := redisx.KeyIdemBooking(uuid.New(), "k1")

	ok, err := store.AcquireLock(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = store.AcquireLock(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.False(ok)

	_, found, err := store.GetResult(ctx, key)
	s.Require().NoError(err)
	s.False(found)

	want := StoredResponse{Status: 201, Body: []byte(`{"booking_id":"x"}`)}
	s.Require().NoError(store.SaveResult(ctx, key, want))

	got, found, err := store.GetResult(ctx, key)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(want.Status, got.Status)
	s.JSONEq(string(want.Body), string(got.Body))

	// A stored response survives Release.
	s.Require().NoError(store.Release(ctx, key))
	_, found, err = store.GetResult(ctx, key)
	s.Require().NoError(err)
	s.True(found)

	other := redisx.KeyIdemBooking(uuid.New(), "k2")
	ok, err = store.AcquireLock(ctx, other, time.Minute)
	s.Require().NoError(err)
	s.True(ok)
	s.Require().NoError(store.Release(ctx, other))

	ok, err = store.AcquireLock(ctx, other, time.Minute)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisSuite) TestSlidingWindowLimiter() {
	ctx := context.Background()
	limiter := NewSlidingWindowLimiter(s.rdb, "bookings", 3, time.Minute)

	for i := 1; i <= 3; i++ {
		allowed, current, _, err := limiter.Allow(ctx, "10.0.0.1")
		s.Require().NoError(err)
		s.True(allowed)
		s.Equal(int64(i), current)
	}

	allowed, _, retryAfter, err := limiter.Allow(ctx, "10.0.0.1")
	s.Require().NoError(err)
	s.False(allowed)
	s.Greater(retryAfter, time.Duration(0))

	allowed, _, _, err = limiter.Allow(ctx, "10.0.0.2")
	s.Require().NoError(err)
	s.True(allowed)
}

func (s *RedisSuite) TestShowsPubSub() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ps := redisx.NewShowsPubSub(s.rdb)
	got := make(chan redisx.ShowChanged, 1)

	go func() {
		_ = ps.Subscribe(ctx, func(ctx context.Context, msg redisx.ShowChanged) {
			select {
			case got <- msg:
			default:
			}
		})
	}()

	showID := uuid.New()

	// The subscription is established asynchronously; publish until it lands.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		s.Require().NoError(ps.PublishShowChanged(ctx, showID, "delhi"))
		select {
		case msg := <-got:
			s.Equal(showID, msg.ShowID)
			s.Equal("delhi", msg.City)
			return
		case <-ticker.C:
		case <-ctx.Done():
			s.FailNow("no show change received")
		}
	}
}
