package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/caseboardhq/caseboard-go/internal/domain/entities/records"
	"github.com/caseboardhq/caseboard-go/internal/domain/events"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/coordinator"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/manager"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/messaging"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/realtime"
	"github.com/caseboardhq/caseboard-go/pkg/config"
)

// ErrRecordNotFound is returned by Watch when the key resolves to nothing.
var ErrRecordNotFound = errors.New("record not found")

// SyncService keeps cached records consistent with the data service. It
// routes change events into the invalidation coordinator, re-fetches
// honored scopes in the background, pushes fresh data to watchers and
// falls back to interval polling when the realtime link is down.
type SyncService struct {
	records     *RecordService
	cache       *manager.Manager
	coord       *coordinator.Coordinator
	subscriber  *realtime.Subscriber
	supervisor  *realtime.Supervisor
	broadcaster messaging.Broadcaster
	logger      *logging.ChanneledLogger

	ctx context.Context

	mu       sync.Mutex
	watchers map[string][]*WatchHandle
	pollStop chan struct{}
}

func NewSyncService(
	recordService *RecordService,
	cache *manager.Manager,
	coord *coordinator.Coordinator,
	subscriber *realtime.Subscriber,
	supervisor *realtime.Supervisor,
	broadcaster messaging.Broadcaster,
	logger *logging.ChanneledLogger,
) *SyncService {
	s := &SyncService{
		records:     recordService,
		cache:       cache,
		coord:       coord,
		subscriber:  subscriber,
		supervisor:  supervisor,
		broadcaster: broadcaster,
		logger:      logger,
		watchers:    make(map[string][]*WatchHandle),
	}

	coord.OnRecordRefresh(s.refreshRecord)
	coord.OnListRefresh(s.refreshList)
	subscriber.OnEvent(s.handleChange)
	supervisor.OnOffline(s.startPolling)
	supervisor.OnOnline(s.stopPolling)

	return s
}

// Start launches the coordinator and supervisor loops.
func (s *SyncService) Start(ctx context.Context) {
	s.ctx = ctx
	go s.coord.Start(ctx)
	go s.supervisor.Start(ctx)
	s.logger.Sync().Info("Sync service started", "pollInterval", config.SyncPollInterval)
}

// Invalidate requests a debounced invalidation of one record (and, by
// implication, the list scope).
func (s *SyncService) Invalidate(recordID string) {
	s.coord.Invalidate(recordID)
}

// InvalidateList requests a debounced invalidation of the list scope.
func (s *SyncService) InvalidateList() {
	s.coord.InvalidateList()
}

// Refetch resolves a lookup key and schedules a rate-limited re-fetch.
func (s *SyncService) Refetch(key string) error {
	switch records.ClassifyKey(key) {
	case records.KeyUUID:
		s.coord.Invalidate(key)
		return nil
	case records.KeyCaseNumber:
		if id, found := s.cache.GetRecordIDByCaseNumber(key); found {
			s.coord.Invalidate(id)
			return nil
		}
		record, err := s.records.GetByCaseNumber(key)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrRecordNotFound
		}
		s.coord.Invalidate(record.ID)
		return nil
	default:
		return fmt.Errorf("unrecognized record key %q", key)
	}
}

// handleChange is the subscriber's event sink.
func (s *SyncService) handleChange(ev realtime.ChangeEvent) {
	s.logger.Sync().Debug("Change event received", "ref", ev.Ref, "recordId", ev.RecordID, "kind", ev.Kind)
	s.coord.Invalidate(ev.RecordID)
	s.broadcaster.BroadcastRecordChange(events.RecordChange{
		Ref:      ev.Ref,
		RecordID: ev.RecordID,
		Kind:     string(ev.Kind),
		At:       ev.At,
	})
}

// refreshRecord reloads one honored record scope and feeds watchers.
// The coordinator already marked the cache entry stale.
func (s *SyncService) refreshRecord(recordID string) {
	s.setLoading(recordID, true)
	defer s.setLoading(recordID, false)

	record, err := s.records.GetByID(recordID)
	if err != nil {
		s.logger.Sync().Error("Background record refresh failed", "recordId", recordID, "error", err.Error())
		s.pushErrToWatchers(recordID, err)
		return
	}
	if record == nil {
		// Deleted upstream; evict and tell watchers.
		s.cache.RemoveRecord(recordID)
	}
	s.pushToWatchers(recordID, record)
}

// refreshList reloads the honored list scope.
func (s *SyncService) refreshList() {
	if _, err := s.records.GetAll(); err != nil {
		s.logger.Sync().Error("Background list refresh failed", "error", err.Error())
		return
	}
	s.broadcaster.BroadcastListChange()
}

func (s *SyncService) pushToWatchers(recordID string, record *records.CaseRecord) {
	s.mu.Lock()
	handles := append([]*WatchHandle(nil), s.watchers[recordID]...)
	s.mu.Unlock()

	for _, h := range handles {
		h.push(record)
	}
}

func (s *SyncService) pushErrToWatchers(recordID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.watchers[recordID] {
		h.setErr(err)
	}
}

func (s *SyncService) setLoading(recordID string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.watchers[recordID] {
		h.setLoading(loading)
	}
}

// startPolling begins the interval fallback while the realtime link is
// down. Each tick invalidates the list scope and every watched record
// through the normal debounced path.
func (s *SyncService) startPolling() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pollStop != nil {
		return
	}
	stop := make(chan struct{})
	s.pollStop = stop

	s.logger.Sync().Warn("Realtime link offline, falling back to polling", "interval", config.SyncPollInterval)
	go s.pollLoop(stop)
}

func (s *SyncService) stopPolling() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pollStop == nil {
		return
	}
	close(s.pollStop)
	s.pollStop = nil
	s.logger.Sync().Info("Realtime link restored, polling stopped")
}

func (s *SyncService) pollLoop(stop chan struct{}) {
	ticker := newPollTicker()
	defer ticker.Stop()

	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	done := ctx.Done()
	for {
		select {
		case <-done:
			return
		case <-stop:
			return
		case <-ticker.C:
			s.coord.InvalidateList()
			s.mu.Lock()
			ids := make([]string, 0, len(s.watchers))
			for id := range s.watchers {
				ids = append(ids, id)
			}
			s.mu.Unlock()
			for _, id := range ids {
				s.coord.Invalidate(id)
			}
		}
	}
}
