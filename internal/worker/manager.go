package worker

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"eclipse/internal/logger"
	"eclipse/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines. One is
	// enough: every event only arms a debouncer.
	DefaultWorkerCount = 1

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 50

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 2 * time.Second
)

// EventHandler processes one change event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event queue.ChangeEvent) error
}

// Manager orchestrates worker goroutines that consume from Redis Streams.
type Manager struct {
	consumer    queue.Consumer
	handler     EventHandler
	stream      string
	group       string
	workerCount int
	batchSize   int64
	blockTime   time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	Stream       string        // Stream to consume
	Group        string        // Consumer group; empty means a fresh per-process group
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Stream:       queue.StreamChanges,
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

// ProcessGroup names a consumer group unique to this process.
func ProcessGroup() string {
	return queue.ConsumerGroupChanges + ":" + strings.ToLower(ulid.Make().String())
}

// NewManager creates a new worker manager.
func NewManager(consumer queue.Consumer, handler EventHandler, cfg ManagerConfig) *Manager {
	if cfg.Stream == "" {
		cfg.Stream = queue.StreamChanges
	}
	if cfg.Group == "" {
		cfg.Group = ProcessGroup()
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		stream:      cfg.Stream,
		group:       cfg.Group,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
	}
}

// Group returns the consumer group this manager reads with.
func (m *Manager) Group() string {
	return m.group
}

// Start creates the consumer group and spins up the workers.
// Call Stop() to gracefully shut down.
func (m *Manager) Start(ctx context.Context) error {
	log := logger.For("Manager")
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, m.stream, m.group); err != nil {
		m.cancel()
		return err
	}

	log.Infof("Starting %d workers for stream=%s group=%s", m.workerCount, m.stream, m.group)
	for i := 0; i < m.workerCount; i++ {
		workerID := i + 1
		m.wg.Add(1)
		go m.runWorker(workerID, consumerNameForWorker(workerID))
	}
	return nil
}

// Stop gracefully shuts down all workers.
// Blocks until all workers have finished.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	log := logger.For("Manager")
	log.Info("Stopping workers...")
	m.cancel()
	m.wg.Wait()
	log.Info("All workers stopped")
}

// runWorker is the main loop for a single worker goroutine.
func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()
	log := logger.For("Worker-" + strconv.Itoa(workerID))
	log.Infof("Started (consumer=%s)", consumerName)

	for {
		select {
		case <-m.ctx.Done():
			log.Info("Shutting down")
			return
		default:
			m.processMessages(workerID, consumerName)
		}
	}
}

// processMessages reads and handles a batch of messages.
func (m *Manager) processMessages(workerID int, consumerName string) {
	messages, err := m.consumer.Read(m.ctx, m.stream, m.group, consumerName, m.batchSize, m.blockTime)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		logger.For("Worker-"+strconv.Itoa(workerID)).Errorf("Error reading: %v", err)
		select {
		case <-m.ctx.Done():
		case <-time.After(time.Second): // Back off on error
		}
		return
	}

	if len(messages) == 0 {
		return
	}
	m.handleMessages(workerID, messages)
}

// handleMessages processes a batch of messages and acknowledges them.
func (m *Manager) handleMessages(workerID int, messages []queue.Message) {
	log := logger.For("Worker-" + strconv.Itoa(workerID))
	var ids []string
	for _, msg := range messages {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			// Still acked: a change hint that cannot be handled now will not
			// become handleable later.
			log.Warnf("Handler error msgID=%s: %v", msg.ID, err)
		}
		ids = append(ids, msg.ID)
	}

	if err := m.consumer.Ack(m.ctx, m.stream, m.group, ids...); err != nil {
		log.Errorf("ACK error ids=%v: %v", ids, err)
	}
}

// consumerNameForWorker generates a unique consumer name for each worker.
func consumerNameForWorker(workerID int) string {
	return "worker-" + strconv.Itoa(workerID)
}
