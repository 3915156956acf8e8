package localstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Blob namespaces
const (
	NamespaceVideos = "videos"
	NamespacePosts  = "posts"
)

const keyPrefix = "eclipse:"

// BlobStore keeps binary payloads on the device, keyed by record id.
type BlobStore interface {
	Put(ctx context.Context, id string, data []byte) error
	// Get returns nil, nil when nothing is stored under id.
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// RedisBlobStore stores one namespace as a Redis hash.
type RedisBlobStore struct {
	client *redis.Client
	key    string
}

// NewBlobStore returns the store for a namespace.
func NewBlobStore(client *redis.Client, namespace string) BlobStore {
	return &RedisBlobStore{client: client, key: keyPrefix + "blob:" + namespace}
}

func (s *RedisBlobStore) Put(ctx context.Context, id string, data []byte) error {
	if err := s.client.HSet(ctx, s.key, id, data).Err(); err != nil {
		return fmt.Errorf("put blob %s: %w", id, err)
	}
	return nil
}

func (s *RedisBlobStore) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.HGet(ctx, s.key, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", id, err)
	}
	return data, nil
}

func (s *RedisBlobStore) Delete(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, s.key, id).Err(); err != nil {
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	return nil
}

func (s *RedisBlobStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear blobs: %w", err)
	}
	return nil
}
