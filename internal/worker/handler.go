package worker

import (
	"context"
	"fmt"

	"eclipse/internal/logger"
	"eclipse/internal/queue"
)

// Notifier receives change events; the realtime change feed implements it.
type Notifier interface {
	Notify(event queue.ChangeEvent)
}

// Handler routes change events from the stream to in-process listeners.
type Handler struct {
	notifier Notifier
}

// NewHandler creates a new event handler.
func NewHandler(notifier Notifier) *Handler {
	return &Handler{notifier: notifier}
}

// HandleEvent forwards events for known tables.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ChangeEvent) error {
	switch event.Table {
	case queue.TableVideos, queue.TableComments, queue.TablePosts, queue.TableProfiles:
	default:
		return fmt.Errorf("unknown table: %s", event.Table)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	logger.For("Worker").Debugf("change: table=%s op=%s record=%s", event.Table, event.Op, event.RecordID)
	h.notifier.Notify(event)
	return nil
}
