package token

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the token in Redis so separate processes share a
// login. SameSite only applies to cookies and is ignored here.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, name string) *RedisStore {
	return &RedisStore{client: client, key: "readerkit:token:" + strings.TrimSpace(name)}
}

func (s *RedisStore) Get(ctx context.Context) (string, bool) {
	v, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("token: redis get %s: %v", s.key, err)
		}
		return "", false
	}
	if v == "" {
		return "", false
	}
	return v, true
}

func (s *RedisStore) Set(ctx context.Context, token string, opts Options) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Clear(ctx)
	}
	return s.client.Set(ctx, s.key, token, opts.MaxAge).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
