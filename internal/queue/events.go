package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Tables whose mutations are announced on the change stream.
const (
	TableVideos   = "videos"
	TableComments = "comments"
	TablePosts    = "community_posts"
	TableProfiles = "profiles"
)

// Mutation kinds
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Stream names
const (
	StreamChanges = "stream:changes"
)

// ConsumerGroupChanges prefixes the per-process consumer group. Every process
// keeps its own in-memory collections, so each needs every event.
const (
	ConsumerGroupChanges = "change_listeners"
)

// ChangeEvent announces one row-level mutation in the record store.
type ChangeEvent struct {
	Table     string `json:"table"`
	Op        string `json:"op"`
	RecordID  string `json:"record_id"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// NewChangeEvent stamps an event with the current time.
func NewChangeEvent(table, op, recordID string) ChangeEvent {
	return ChangeEvent{
		Table:     table,
		Op:        op,
		RecordID:  recordID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// ToMap converts the event to field-value pairs for XADD. The table is kept as
// its own field so the stream can be inspected without decoding.
func (e ChangeEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"table": e.Table,
		"data":  string(data),
	}, nil
}

// ParseChangeEvent parses a ChangeEvent from Redis stream message values.
func ParseChangeEvent(values map[string]interface{}) (ChangeEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ChangeEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ChangeEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ChangeEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if event.Table == "" {
		return ChangeEvent{}, fmt.Errorf("event without table")
	}
	return event, nil
}
