// Package messaging defines interfaces for real-time communication.
package messaging

import "github.com/caseboardhq/caseboard-go/internal/domain/events"

// Broadcaster defines the interface for managing SSE client connections
// and pushing record changes to connected portal sessions.
type Broadcaster interface {
	AddClient(sessionID string) chan string
	RemoveClient(ch chan string, sessionID string)
	ConnectionCount() int
	BroadcastRecordChange(change events.RecordChange)
	BroadcastListChange()
}
