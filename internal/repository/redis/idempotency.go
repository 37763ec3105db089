package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// idemPending marks a key claimed by a request that has not finished yet.
const idemPending = "PENDING"

// StoredResponse is the response replayed for a repeated Idempotency-Key.
type StoredResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// IdempotencyStore remembers the response of a request under its
// Idempotency-Key. A key is first claimed as pending for a short time, then
// replaced by the stored response, which lives for ttl.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

// AcquireLock claims key for the caller. It reports false when another
// request holds the claim or has already stored a response.
func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, idemPending, lockTTL).Result()
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, resp StoredResponse) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, key, b, s.ttl).Err()
}

// GetResult returns the stored response for key. A pending claim is not a
// result.
func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (*StoredResponse, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) || v == idemPending {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp StoredResponse
	if err := json.Unmarshal([]byte(v), &resp); err != nil {
		return nil, false, fmt.Errorf("decode stored response %s: %w", key, err)
	}

	return &resp, true, nil
}

// Release drops a pending claim so the request can be retried. A stored
// response is left alone.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		v, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if v != idemPending {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, key)
			return nil
		})
		return err
	}, key)
}
