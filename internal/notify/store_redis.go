package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the claim only while it is still in SENDING, so a
// late Release can never wipe out a recorded SENT.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisClaimStore coordinates dispatch claims across processes. The SENDING
// claim carries a TTL so a dispatcher that dies mid-send releases its claim
// by expiry; SENT is written without expiry.
type RedisClaimStore struct {
	client     *redis.Client
	pendingTTL time.Duration
}

func NewRedisClaimStore(client *redis.Client, pendingTTL time.Duration) *RedisClaimStore {
	return &RedisClaimStore{client: client, pendingTTL: pendingTTL}
}

func (s *RedisClaimStore) TryAcquire(ctx context.Context, key string) (bool, State, error) {
	acquired, err := s.client.SetNX(ctx, key, string(StateSending), s.pendingTTL).Result()
	if err != nil {
		return false, StateNotSent, fmt.Errorf("acquire claim: %w", err)
	}
	if acquired {
		return true, StateSending, nil
	}
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Claim expired between SETNX and GET; report in-flight and let the
		// caller retry.
		return false, StateSending, nil
	}
	if err != nil {
		return false, StateNotSent, fmt.Errorf("read claim: %w", err)
	}
	return false, State(value), nil
}

func (s *RedisClaimStore) MarkSent(ctx context.Context, key string) error {
	if err := s.client.Set(ctx, key, string(StateSent), 0).Err(); err != nil {
		return fmt.Errorf("mark claim sent: %w", err)
	}
	return nil
}

func (s *RedisClaimStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{key}, string(StateSending)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release claim: %w", err)
	}
	return nil
}
