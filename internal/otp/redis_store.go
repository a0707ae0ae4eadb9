package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "otp:"

// expiredRetention keeps a record readable past its expiry so a late verify
// reports "expired" rather than "no code on record". Redis evicts the key
// once the margin passes.
const expiredRetention = 10 * time.Minute

// RedisStore keeps OTP records in a shared Redis cache so verification works
// across multiple API instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed OTP store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, email string) (*Record, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read otp record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode otp record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Set(ctx context.Context, email string, record *Record, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode otp record: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+email, data, ttl+expiredRetention).Err(); err != nil {
		return fmt.Errorf("failed to store otp record: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("failed to delete otp record: %w", err)
	}
	return nil
}
