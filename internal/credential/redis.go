package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	redisclient "github.com/resbox/resbox-core/internal/redis"
)

// kv is the subset of the redis client used for secrets.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps secrets under credential:<service>:<account>.
type RedisStore struct {
	client kv
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, service, account string) (string, error) {
	secret, err := s.client.Get(ctx, redisclient.CredentialKey(service, account)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get credential: %w", err)
	}
	return secret, nil
}

func (s *RedisStore) Set(ctx context.Context, service, account, secret string) error {
	if err := s.client.Set(ctx, redisclient.CredentialKey(service, account), secret, 0).Err(); err != nil {
		return fmt.Errorf("redis set credential: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, service, account string) error {
	if err := s.client.Del(ctx, redisclient.CredentialKey(service, account)).Err(); err != nil {
		return fmt.Errorf("redis delete credential: %w", err)
	}
	return nil
}
