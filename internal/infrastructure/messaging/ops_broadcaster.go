package messaging

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/coordinator"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/manager"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/types"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/realtime"
)

// OpsClient represents a single connected ops dashboard client.
type OpsClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

// OpsStatusPayload is the complete data structure sent to the dashboard on each tick.
type OpsStatusPayload struct {
	Cache        types.CacheStats  `json:"cache"`
	Invalidation coordinator.Stats `json:"invalidation"`
	LinkState    string            `json:"linkState"`
	Online       bool              `json:"online"`
	SSEClients   int               `json:"sseClients"`
	At           time.Time         `json:"at"`
}

// OpsBroadcaster manages all connected ops dashboard clients and
// broadcasts a status snapshot on a fixed tick.
type OpsBroadcaster struct {
	clients      map[*OpsClient]bool
	register     chan *OpsClient
	unregister   chan *OpsClient
	cacheManager *manager.Manager
	coord        *coordinator.Coordinator
	subscriber   *realtime.Subscriber
	supervisor   *realtime.Supervisor
	sse          *SSEBroadcaster
	mu           sync.RWMutex
}

// NewOpsBroadcaster creates a new broadcaster instance.
func NewOpsBroadcaster(cm *manager.Manager, coord *coordinator.Coordinator, subscriber *realtime.Subscriber, supervisor *realtime.Supervisor, sse *SSEBroadcaster) *OpsBroadcaster {
	return &OpsBroadcaster{
		clients:      make(map[*OpsClient]bool),
		register:     make(chan *OpsClient),
		unregister:   make(chan *OpsClient),
		cacheManager: cm,
		coord:        coord,
		subscriber:   subscriber,
		supervisor:   supervisor,
		sse:          sse,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *OpsBroadcaster) Run() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			log.Printf("Ops client registered (%d connected)", len(b.clients))
			b.mu.Unlock()

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			log.Printf("Ops client unregistered (%d connected)", len(b.clients))
			b.mu.Unlock()

		case <-ticker.C:
			b.broadcastStatus()
		}
	}
}

// Register queues a client for registration.
func (b *OpsBroadcaster) Register(client *OpsClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *OpsBroadcaster) Unregister(client *OpsClient) {
	b.unregister <- client
}

// Snapshot builds the current status payload.
func (b *OpsBroadcaster) Snapshot() OpsStatusPayload {
	return OpsStatusPayload{
		Cache:        b.cacheManager.Stats(),
		Invalidation: b.coord.Snapshot(),
		LinkState:    string(b.subscriber.State()),
		Online:       b.supervisor.Online(),
		SSEClients:   b.sse.ConnectionCount(),
		At:           time.Now().UTC(),
	}
}

func (b *OpsBroadcaster) broadcastStatus() {
	b.mu.RLock()
	hasClients := len(b.clients) > 0
	b.mu.RUnlock()
	if !hasClients {
		return
	}

	message, err := json.Marshal(b.Snapshot())
	if err != nil {
		log.Printf("Error marshaling ops status: %v", err)
		return
	}

	b.mu.RLock()
	for client := range b.clients {
		select {
		case client.Send <- message:
		default:
		}
	}
	b.mu.RUnlock()
}
