package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"eclipse/internal/queue"
)

var uploadedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// recordingPublisher keeps every announced change.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, stream string, event queue.ChangeEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "1-0", nil
}

func (p *recordingPublisher) Events() []queue.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.ChangeEvent(nil), p.events...)
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

var malformedID = &pq.Error{Code: pqInvalidTextRepr, Message: "invalid input syntax for type uuid"}
