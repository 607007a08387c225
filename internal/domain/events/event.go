// Package events provides event types
package events

import "time"

// RecordChange describes one observed mutation of the investigations
// store, pushed to connected portal sessions.
type RecordChange struct {
	Ref      string    `json:"ref"`
	RecordID string    `json:"recordId"`
	Kind     string    `json:"kind"`
	At       time.Time `json:"at"`
}
