package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStateTTL bounds how long an OAuth login redirect stays redeemable.
const DefaultStateTTL = 10 * time.Minute

const stateKeyPrefix = "estatecast:oauth:state:"

// StateStore pins OAuth state tokens between the login redirect and the
// provider callback. Take must consume the token so a state can only be
// redeemed once.
type StateStore interface {
	Put(ctx context.Context, state string) error
	Take(ctx context.Context, state string) (bool, error)
}

type redisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisStateStore(client *redis.Client, ttl time.Duration) *redisStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &redisStateStore{client: client, ttl: ttl}
}

func (s *redisStateStore) Put(ctx context.Context, state string) error {
	return s.client.Set(ctx, stateKeyPrefix+state, "1", s.ttl).Err()
}

func (s *redisStateStore) Take(ctx context.Context, state string) (bool, error) {
	n, err := s.client.Del(ctx, stateKeyPrefix+state).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
