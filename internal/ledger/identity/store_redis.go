package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

const keyPrefix = "ledger:addr:"

// RedisStore persists the mapping in Redis so address assignments survive
// process restarts. Keys carry no TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, voterID string) (string, error) {
	addr, err := s.client.Get(ctx, keyPrefix+voterID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("redis get ledger address: %w", err)
	}
	return addr, nil
}

func (s *RedisStore) Set(ctx context.Context, voterID, addr string) error {
	// SETNX makes the first write win under concurrent assignment.
	set, err := s.client.SetNX(ctx, keyPrefix+voterID, addr, 0).Result()
	if err != nil {
		return fmt.Errorf("redis set ledger address: %w", err)
	}
	if !set {
		existing, err := s.Get(ctx, voterID)
		if err == nil && existing == addr {
			return nil
		}
		return sentinel.ErrDuplicate
	}
	return nil
}
