package services

import (
	"context"
	"sync"
	"time"

	"github.com/caseboardhq/caseboard-go/internal/domain/entities/records"
	"github.com/caseboardhq/caseboard-go/pkg/config"
)

// Watch loads the record behind a lookup key and returns a live handle.
// The session-wide change subscription is shared: the first live handle
// opens it, the last Close tears it down. When the subscription cannot
// be established the handle still works and the supervisor keeps
// retrying in the background.
//
// Keys with an unrecognized shape still fetch, but the handle stays
// degraded: it takes no subscription reference, so updates arrive only
// through Refetch or the shared poll fallback.
func (s *SyncService) Watch(ctx context.Context, key string) (*WatchHandle, error) {
	record, err := s.records.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}

	h := &WatchHandle{
		svc:      s,
		key:      key,
		recordID: record.ID,
		record:   record,
		live:     records.ClassifyKey(key) != records.KeyUnknown,
		updates:  make(chan *records.CaseRecord, 4),
	}

	if h.live {
		if err := s.subscriber.Acquire(ctx); err != nil {
			s.logger.Sync().Warn("Watch started without live subscription", "key", key, "error", err.Error())
			s.supervisor.Reset()
		}
	} else {
		s.logger.Sync().Debug("Watch running degraded, key shape not syncable", "key", key, "recordId", record.ID)
	}

	s.mu.Lock()
	s.watchers[record.ID] = append(s.watchers[record.ID], h)
	s.mu.Unlock()

	return h, nil
}

// WatchHandle is one consumer's view of a watched record.
type WatchHandle struct {
	svc      *SyncService
	key      string
	recordID string
	live     bool
	updates  chan *records.CaseRecord

	mu        sync.Mutex
	record    *records.CaseRecord
	err       error
	loading   bool
	closed    bool
	closeOnce sync.Once
}

// Record returns the most recently seen state. Nil after an upstream delete.
func (h *WatchHandle) Record() *records.CaseRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.record
}

// Err returns the error from the most recent background re-fetch, or
// nil after a successful one.
func (h *WatchHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Loading reports whether a background re-fetch for this record is in flight.
func (h *WatchHandle) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loading
}

// Updates delivers fresh record states as background re-fetches land.
// A nil value signals the record was deleted upstream.
func (h *WatchHandle) Updates() <-chan *records.CaseRecord {
	return h.updates
}

// Refetch schedules a re-fetch through the debounced invalidation path.
func (h *WatchHandle) Refetch() {
	h.svc.Invalidate(h.recordID)
}

// Close releases the shared subscription reference and stops updates.
func (h *WatchHandle) Close() {
	h.closeOnce.Do(func() {
		h.svc.mu.Lock()
		handles := h.svc.watchers[h.recordID]
		remaining := make([]*WatchHandle, 0, len(handles))
		for _, other := range handles {
			if other != h {
				remaining = append(remaining, other)
			}
		}
		if len(remaining) == 0 {
			delete(h.svc.watchers, h.recordID)
		} else {
			h.svc.watchers[h.recordID] = remaining
		}
		h.svc.mu.Unlock()

		if h.live {
			h.svc.subscriber.Release()
		}

		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
		close(h.updates)
	})
}

func (h *WatchHandle) push(record *records.CaseRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.record = record
	h.err = nil
	select {
	case h.updates <- record:
	default:
	}
}

func (h *WatchHandle) setErr(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

func (h *WatchHandle) setLoading(loading bool) {
	h.mu.Lock()
	h.loading = loading
	h.mu.Unlock()
}

func newPollTicker() *time.Ticker {
	return time.NewTicker(config.SyncPollInterval)
}
