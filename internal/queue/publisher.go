package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eclipse/internal/logger"
)

// DefaultStreamMaxLen bounds the change stream; entries are only hints to
// refetch, so old ones carry no value.
const DefaultStreamMaxLen = 10000

// Publisher defines the interface for publishing change events.
type Publisher interface {
	// Publish adds an event to the specified stream.
	// Returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event ChangeEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	maxLen int64
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client) Publisher {
	return &RedisPublisher{client: client, maxLen: DefaultStreamMaxLen}
}

// Publish adds an event to the stream using XADD with approximate trimming.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event ChangeEvent) (string, error) {
	log := logger.For("Publisher")
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		log.Errorf("Publish FAILED: stream=%s table=%s err=%v", stream, event.Table, err)
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		log.Errorf("Publish FAILED: stream=%s table=%s err=%v", stream, event.Table, err)
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	log.Debugf("Publish OK: stream=%s table=%s op=%s record=%s msgID=%s duration=%v",
		stream, event.Table, event.Op, event.RecordID, messageID, time.Since(startTime))
	return messageID, nil
}

// Announce publishes a change on StreamChanges. Failures are logged and
// swallowed: the write it describes has already succeeded.
func Announce(ctx context.Context, p Publisher, table, op, recordID string) {
	if p == nil {
		return
	}
	if _, err := p.Publish(ctx, StreamChanges, NewChangeEvent(table, op, recordID)); err != nil {
		logger.For("Publisher").Warnf("change not announced: table=%s op=%s record=%s err=%v", table, op, recordID, err)
	}
}
