package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eclipse/internal/model"
)

// SessionStore persists the signed-in session across restarts.
type SessionStore interface {
	Save(ctx context.Context, session *model.Session) error
	// Load returns nil, nil when no session is stored.
	Load(ctx context.Context) (*model.Session, error)
	Clear(ctx context.Context) error
}

type redisSessionStore struct {
	client *redis.Client
	key    string
}

func NewSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client, key: keyPrefix + "session"}
}

// Save stores the session until it expires.
func (s *redisSessionStore) Save(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return s.Clear(ctx)
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Load(ctx context.Context) (*model.Session, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *redisSessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
