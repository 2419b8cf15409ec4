package recordstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"kycdesk/pkg/platform/sentinel"
)

// RedisStore keeps records as Redis strings and the submission index as a list.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis wraps a connected client. Every key is namespaced with prefix.
func NewRedis(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) AppendSubmissionID(ctx context.Context, id string) error {
	if err := s.client.RPush(ctx, s.key(KeySubmissionList), id).Err(); err != nil {
		return fmt.Errorf("redis rpush: %w", err)
	}
	return nil
}

func (s *RedisStore) ListSubmissionIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.LRange(ctx, s.key(KeySubmissionList), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// GetMany fetches several keys in one round trip. Missing keys come back nil.
func (s *RedisStore) GetMany(ctx context.Context, keys []string) ([][]byte, error) {
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.Get(ctx, s.key(k))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis pipeline: %w", err)
	}
	out := make([][]byte, len(keys))
	for i, cmd := range cmds {
		b, err := cmd.Bytes()
		if err != nil {
			continue
		}
		out[i] = b
	}
	return out, nil
}
