package realtime

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type SSEEvent string

const (
	SSEEventLessonProgressUpdated SSEEvent = "LessonProgressUpdated"
	SSEEventCourseProgressUpdated SSEEvent = "CourseProgressUpdated"
	SSEEventCourseCompleted       SSEEvent = "CourseCompleted"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// UserChannel is the channel every stream of userID subscribes to.
func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}

const outboundBuffer = 16

type SSEHub struct {
	mu            sync.RWMutex
	logger        *logger.Logger
	subscriptions map[string]map[*SSEClient]bool
	heartbeat     time.Duration
}

func NewSSEHub(log *logger.Logger) *SSEHub {
	return &SSEHub{
		logger:        log.With("component", "SSEHub"),
		subscriptions: make(map[string]map[*SSEClient]bool),
		heartbeat:     15 * time.Second,
	}
}

func (hub *SSEHub) NewSSEClient(userID uuid.UUID) *SSEClient {
	id := uuid.New()
	return &SSEClient{
		ID:       id,
		UserID:   userID,
		Channels: make(map[string]bool),
		Outbound: make(chan SSEMessage, outboundBuffer),
		done:     make(chan struct{}),
		Logger:   hub.logger.With("client_id", id.String()),
	}
}

func (hub *SSEHub) AddChannel(client *SSEClient, channel string) {
	channel = strings.TrimSpace(channel)
	if client == nil || channel == "" {
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()

	client.Channels[channel] = true
	clients, exists := hub.subscriptions[channel]
	if !exists {
		clients = make(map[*SSEClient]bool)
		hub.subscriptions[channel] = clients
	}
	clients[client] = true
	hub.logger.Debug("SSE client subscribed", "client_id", client.ID, "channel", channel)
}

func (hub *SSEHub) RemoveClient(client *SSEClient) {
	if client == nil {
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for ch := range client.Channels {
		if subMap, ok := hub.subscriptions[ch]; ok {
			delete(subMap, client)
			if len(subMap) == 0 {
				delete(hub.subscriptions, ch)
			}
		}
	}
	client.Channels = make(map[string]bool)
}

// Subscribers counts clients on channel.
func (hub *SSEHub) Subscribers(channel string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subscriptions[channel])
}

// Broadcast never blocks; a client with a full buffer misses the message.
func (hub *SSEHub) Broadcast(msg SSEMessage) {
	if msg.Channel == "" {
		return
	}
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for c := range hub.subscriptions[msg.Channel] {
		select {
		case c.Outbound <- msg:
		default:
			hub.logger.Warn("Dropping SSE message; outbound buffer full", "client_id", c.ID, "event", msg.Event)
		}
	}
}

func (hub *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *SSEClient) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	heartbeat := time.NewTicker(hub.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-client.Outbound:
			if !ok {
				return
			}
			raw, err := sonic.Marshal(msg)
			if err != nil {
				client.Logger.Warn("Failed to marshal SSE message", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, raw)
			flusher.Flush()
		}
	}
}

// CloseClient unsubscribes client and closes its outbound channel. Safe to call twice.
func (hub *SSEHub) CloseClient(client *SSEClient) {
	if client == nil {
		return
	}
	hub.RemoveClient(client)
	client.closeOnce.Do(func() {
		close(client.done)
		close(client.Outbound)
	})
}
