package service

import (
	"context"
	"sync"
	"time"

	"eclipse/internal/logger"
	"eclipse/internal/queue"
	"eclipse/internal/realtime"
)

// ChangeSource delivers change events per table.
type ChangeSource interface {
	Subscribe(table string, listener realtime.Listener) func()
}

// Broadcaster pushes refresh hints to connected UI clients.
type Broadcaster interface {
	Broadcast(eventType string)
}

const refreshTimeout = 30 * time.Second

// liveList is an in-memory collection replaced wholesale by a full refetch
// whenever its table changes.
type liveList[T any] struct {
	component string
	table     string
	event     string
	fetch     func(ctx context.Context) ([]T, error)
	clone     func(T) T
	hub       Broadcaster

	mu          sync.RWMutex
	items       []T
	closed      bool
	debouncer   *realtime.Debouncer
	unsubscribe func()
}

// start loads the collection once and keeps it live. A failed first load
// leaves the collection empty and is returned.
func (l *liveList[T]) start(ctx context.Context, changes ChangeSource, delay time.Duration) error {
	err := l.refresh(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || changes == nil {
		return err
	}
	l.debouncer = realtime.NewDebouncer(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		_ = l.refresh(ctx)
	})
	debouncer := l.debouncer
	l.unsubscribe = changes.Subscribe(l.table, func(event queue.ChangeEvent) {
		debouncer.Trigger()
	})
	return err
}

// refresh refetches the whole collection. On error the last known value is
// kept; results arriving after close are dropped.
func (l *liveList[T]) refresh(ctx context.Context) error {
	log := logger.For(l.component)
	startTime := time.Now()

	items, err := l.fetch(ctx)
	if err != nil {
		log.Errorf("Refresh FAILED: table=%s err=%v (keeping stale list)", l.table, err)
		return err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		log.Debugf("Refresh dropped after close: table=%s", l.table)
		return nil
	}
	l.items = items
	l.mu.Unlock()

	log.Debugf("Refresh OK: table=%s count=%d duration=%v", l.table, len(items), time.Since(startTime))
	if l.hub != nil {
		l.hub.Broadcast(l.event)
	}
	return nil
}

func (l *liveList[T]) snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, len(l.items))
	for i, item := range l.items {
		if l.clone != nil {
			item = l.clone(item)
		}
		out[i] = item
	}
	return out
}

// modify applies fn to the collection under the write lock.
func (l *liveList[T]) modify(fn func([]T) []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.items = fn(l.items)
}

func (l *liveList[T]) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if l.unsubscribe != nil {
		l.unsubscribe()
	}
	if l.debouncer != nil {
		l.debouncer.Stop()
	}
}
