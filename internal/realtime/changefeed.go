package realtime

import (
	"sync"

	"eclipse/internal/logger"
	"eclipse/internal/queue"
)

// Listener is called once per coalesced burst of changes on a table.
type Listener func(event queue.ChangeEvent)

type subscription struct {
	id       uint64
	listener Listener
}

// ChangeFeed fans change events out to per-table subscribers.
type ChangeFeed struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
	closed bool
}

func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{subs: make(map[string][]subscription)}
}

// Subscribe registers listener for table and returns its unsubscribe func.
func (f *ChangeFeed) Subscribe(table string, listener Listener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return func() {}
	}
	f.nextID++
	id := f.nextID
	f.subs[table] = append(f.subs[table], subscription{id: id, listener: listener})

	var once sync.Once
	return func() {
		once.Do(func() { f.remove(table, id) })
	}
}

func (f *ChangeFeed) remove(table string, id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.subs[table]
	for i, s := range subs {
		if s.id == id {
			f.subs[table] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(f.subs[table]) == 0 {
		delete(f.subs, table)
	}
}

// Notify delivers event to every subscriber of its table. Listeners run on
// the caller's goroutine and must not block.
func (f *ChangeFeed) Notify(event queue.ChangeEvent) {
	f.mu.RLock()
	if f.closed {
		f.mu.RUnlock()
		return
	}
	subs := make([]subscription, len(f.subs[event.Table]))
	copy(subs, f.subs[event.Table])
	f.mu.RUnlock()

	if len(subs) == 0 {
		logger.For("ChangeFeed").Debugf("no listeners: table=%s op=%s", event.Table, event.Op)
		return
	}
	for _, s := range subs {
		s.listener(event)
	}
}

// Close drops every subscription; later Notify calls are no-ops.
func (f *ChangeFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.subs = make(map[string][]subscription)
}
