package localstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// CountStore persists the subscriber count cache.
type CountStore interface {
	Load(ctx context.Context) (map[string]int, error)
	Save(ctx context.Context, counts map[string]int) error
}

type redisCountStore struct {
	client *redis.Client
	key    string
}

func NewCountStore(client *redis.Client) CountStore {
	return &redisCountStore{client: client, key: keyPrefix + "subscriber_counts"}
}

// Load skips entries that do not parse as integers.
func (s *redisCountStore) Load(ctx context.Context) (map[string]int, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load subscriber counts: %w", err)
	}
	counts := make(map[string]int, len(raw))
	for channel, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		counts[channel] = n
	}
	return counts, nil
}

// Save replaces the stored map.
func (s *redisCountStore) Save(ctx context.Context, counts map[string]int) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(counts) > 0 {
			values := make(map[string]interface{}, len(counts))
			for channel, n := range counts {
				values[channel] = n
			}
			pipe.HSet(ctx, s.key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save subscriber counts: %w", err)
	}
	return nil
}
