package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the networked backend used by deployed bots.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore dials nothing up front; go-redis connects lazily and the
// bootstrap read in Open is the effective reachability check.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DialTimeout:  cfg.OpTimeout,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
	})
	return &RedisStore{rdb: client}, nil
}

func (s *RedisStore) Append(ctx context.Context, key, value string) error {
	if err := s.rdb.RPush(ctx, key, value).Err(); err != nil {
		return unavailable("rpush", key, err)
	}
	return nil
}

func (s *RedisStore) Prepend(ctx context.Context, key, value string) error {
	if err := s.rdb.LPush(ctx, key, value).Err(); err != nil {
		return unavailable("lpush", key, err)
	}
	return nil
}

func (s *RedisStore) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	values, err := s.rdb.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, unavailable("lrange", key, err)
	}
	return values, nil
}

func (s *RedisStore) Trim(ctx context.Context, key string, start, stop int64) error {
	if err := s.rdb.LTrim(ctx, key, start, stop).Err(); err != nil {
		return unavailable("ltrim", key, err)
	}
	return nil
}

func (s *RedisStore) Len(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.LLen(ctx, key).Result()
	if err != nil {
		return 0, unavailable("llen", key, err)
	}
	return n, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get", key, err)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return unavailable("set", key, err)
	}
	return nil
}

func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := s.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, unavailable("keys", pattern, err)
	}
	return keys, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
