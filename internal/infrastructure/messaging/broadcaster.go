// Package messaging provides the concrete implementation of the SSE broadcaster.
package messaging

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/caseboardhq/caseboard-go/internal/domain/events"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
)

// SSEBroadcaster fans record changes out to every connected portal session.
type SSEBroadcaster struct {
	sessions map[string][]chan string // sessionId -> []channels
	mu       sync.Mutex
	logger   *logging.ChanneledLogger
}

var (
	globalBroadcaster *SSEBroadcaster
	once              sync.Once
)

// NewSSEBroadcaster creates the singleton SSEBroadcaster instance.
func NewSSEBroadcaster(logger *logging.ChanneledLogger) *SSEBroadcaster {
	once.Do(func() {
		globalBroadcaster = &SSEBroadcaster{
			sessions: make(map[string][]chan string),
			logger:   logger,
		}
	})
	return globalBroadcaster
}

// AddClient registers a new SSE client under its portal session.
func (b *SSEBroadcaster) AddClient(sessionID string) chan string {
	ch := make(chan string, 10)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessions[sessionID] = append(b.sessions[sessionID], ch)

	b.logger.Realtime().Debug("SSE client registered", "sessionId", sessionID)
	return ch
}

// RemoveClient removes an SSE client from its portal session.
func (b *SSEBroadcaster) RemoveClient(ch chan string, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, exists := b.sessions[sessionID]; exists {
		newClients := make([]chan string, 0, len(clients)-1)
		for _, client := range clients {
			if client != ch {
				newClients = append(newClients, client)
			}
		}
		b.sessions[sessionID] = newClients

		if len(b.sessions[sessionID]) == 0 {
			delete(b.sessions, sessionID)
		}
	}
	b.logger.Realtime().Debug("SSE client unregistered", "sessionId", sessionID)
}

// ConnectionCount returns the number of connected SSE clients.
func (b *SSEBroadcaster) ConnectionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	var count int
	for _, clients := range b.sessions {
		count += len(clients)
	}
	return count
}

// BroadcastRecordChange pushes one record change to every session.
func (b *SSEBroadcaster) BroadcastRecordChange(change events.RecordChange) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Realtime().Error("Panic recovered in BroadcastRecordChange", "error", r, "recordId", change.RecordID)
		}
	}()

	data, _ := json.Marshal(change)
	message := fmt.Sprintf("event: record_changed\ndata: %s\n\n", data)
	b.broadcast(message)
}

// BroadcastListChange tells every session the list query went stale.
func (b *SSEBroadcaster) BroadcastListChange() {
	b.broadcast("event: list_changed\ndata: {}\n\n")
}

func (b *SSEBroadcaster) broadcast(message string) {
	b.logger.Realtime().Debug("Broadcasting to sessions", "message", strings.ReplaceAll(message, "\n", "\\n"))

	b.mu.Lock()
	defer b.mu.Unlock()

	for sessionID, clients := range b.sessions {
		for _, ch := range clients {
			select {
			case ch <- message:
			default:
				b.logger.Realtime().Warn("SSE channel full, message dropped", "sessionId", sessionID)
			}
		}
	}
}
