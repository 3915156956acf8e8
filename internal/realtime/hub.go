package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"eclipse/internal/logger"
)

// Live event names pushed to UI clients.
const (
	EventVideosChanged = "videos_changed"
	EventPostsChanged  = "posts_changed"
)

const (
	clientBufferSize = 8
	writeTimeout     = 10 * time.Second
	pingInterval     = 30 * time.Second
)

// LiveEvent tells a client which collection to re-read.
type LiveEvent struct {
	Type string `json:"type"`
	At   int64  `json:"at"`
}

// Hub keeps websocket clients and pushes collection refresh events to them.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[chan LiveEvent]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The binding surface is served to a local UI.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[chan LiveEvent]struct{}),
	}
}

// Serve upgrades the request and streams events until either side closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	log := logger.For("Hub")
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	ch := make(chan LiveEvent, clientBufferSize)
	if !h.addClient(ch) {
		return
	}
	defer h.removeClient(ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			// Inbound frames are ignored; reading surfaces the close.
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeTimeout))
				return
			}
			data, _ := json.Marshal(evt)
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debugf("write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *Hub) addClient(ch chan LiveEvent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[ch] = struct{}{}
	return true
}

func (h *Hub) removeClient(ch chan LiveEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// Broadcast queues the event for every client. Slow clients miss events
// rather than stall the sender.
func (h *Hub) Broadcast(eventType string) {
	evt := LiveEvent{Type: eventType, At: time.Now().UnixMilli()}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}
