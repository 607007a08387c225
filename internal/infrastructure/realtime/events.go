// Package realtime provides the change-event subscription layer over the
// hosted data service, with a row-level primary channel and a broadcast
// fallback channel.
package realtime

import (
	"strings"
	"time"
)

// EventKind classifies a change event.
type EventKind string

const (
	EventCreate EventKind = "create"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// ChangeEvent is the normalized change notification handed to consumers.
// Both channels reduce to this shape.
type ChangeEvent struct {
	Ref      string    `json:"ref"`
	RecordID string    `json:"recordId"`
	Kind     EventKind `json:"kind"`
	At       time.Time `json:"at"`
}

// RowEvent is the raw payload delivered on the primary row-level channel.
type RowEvent struct {
	Type   string         `json:"type"`
	Table  string         `json:"table"`
	Record map[string]any `json:"record"`
	Old    map[string]any `json:"old_record"`
}

// BroadcastMessage is the raw payload delivered on the fallback topic.
// Publishers put the record ID and operation directly in the payload.
type BroadcastMessage struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
}

// Status reports fallback channel lifecycle transitions.
type Status string

const (
	StatusSubscribed   Status = "SUBSCRIBED"
	StatusChannelError Status = "CHANNEL_ERROR"
	StatusTimedOut     Status = "TIMED_OUT"
	StatusClosed       Status = "CLOSED"
)

// NormalizeRowEvent reduces a raw row event to a ChangeEvent. The second
// return is false when the payload carries no usable record ID.
func NormalizeRowEvent(ref string, ev RowEvent) (ChangeEvent, bool) {
	kind, ok := kindFromType(ev.Type)
	if !ok {
		return ChangeEvent{}, false
	}

	source := ev.Record
	if kind == EventDelete {
		source = ev.Old
	}
	id, _ := source["id"].(string)
	if id == "" {
		return ChangeEvent{}, false
	}

	return ChangeEvent{Ref: ref, RecordID: id, Kind: kind, At: time.Now().UTC()}, true
}

// NormalizeBroadcast reduces a fallback broadcast to a ChangeEvent.
func NormalizeBroadcast(ref string, msg BroadcastMessage) (ChangeEvent, bool) {
	kind, ok := kindFromType(msg.Event)
	if !ok {
		if k, found := msg.Payload["operation"].(string); found {
			kind, ok = kindFromType(k)
		}
		if !ok {
			return ChangeEvent{}, false
		}
	}

	id, _ := msg.Payload["recordId"].(string)
	if id == "" {
		id, _ = msg.Payload["id"].(string)
	}
	if id == "" {
		return ChangeEvent{}, false
	}

	return ChangeEvent{Ref: ref, RecordID: id, Kind: kind, At: time.Now().UTC()}, true
}

func kindFromType(raw string) (EventKind, bool) {
	switch strings.ToUpper(raw) {
	case "INSERT", "CREATE":
		return EventCreate, true
	case "UPDATE":
		return EventUpdate, true
	case "DELETE":
		return EventDelete, true
	}
	return "", false
}
