// Package manager provides centralized cache operations by delegating to specialized stores.
package manager

import (
	"time"

	"github.com/caseboardhq/caseboard-go/internal/domain/entities/records"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/interfaces"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/stores"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/types"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
)

// Interface assertion to ensure Manager implements the full cache contract.
var _ interfaces.Cache = (*Manager)(nil)

// Manager is the single cache entry point shared by repositories, the
// invalidation coordinator and the ops surface.
type Manager struct {
	recordStore *stores.RecordStore
	listStore   *stores.ListStore
	logger      *logging.ChanneledLogger
}

func NewManager(logger *logging.ChanneledLogger) *Manager {
	if logger != nil {
		logger.Cache().Info("Initializing cache manager", "stores", []string{"records", "lists"})
	}

	return &Manager{
		recordStore: stores.NewRecordStore(logger),
		listStore:   stores.NewListStore(logger),
		logger:      logger,
	}
}

func (m *Manager) GetRecord(id string) (*records.CaseRecord, bool) {
	record, hit := m.recordStore.Get(id)
	if m.logger != nil {
		m.logger.LogCacheOperation("get", "record:"+id, hit, 0)
	}
	return record, hit
}

func (m *Manager) SetRecord(record *records.CaseRecord) {
	m.recordStore.Set(record)
}

func (m *Manager) GetRecordIDByCaseNumber(caseNumber string) (string, bool) {
	return m.recordStore.IDByCaseNumber(caseNumber)
}

func (m *Manager) MarkRecordStale(id string) {
	m.recordStore.MarkStale(id)
}

func (m *Manager) RemoveRecord(id string) {
	m.recordStore.Remove(id)
}

func (m *Manager) RecordIDs() []string {
	return m.recordStore.IDs()
}

func (m *Manager) GetList(key string) ([]string, bool) {
	ids, hit := m.listStore.Get(key)
	if m.logger != nil {
		m.logger.LogCacheOperation("get", "list:"+key, hit, 0)
	}
	return ids, hit
}

func (m *Manager) SetList(key string, recordIDs []string) {
	m.listStore.Set(key, recordIDs)
}

func (m *Manager) MarkListsStale() {
	m.listStore.MarkAllStale()
}

func (m *Manager) RemoveList(key string) {
	m.listStore.Remove(key)
}

// Stats aggregates store snapshots for the reporter and ops endpoint.
func (m *Manager) Stats() types.CacheStats {
	recTotal, recStale, recUpdated := m.recordStore.Snapshot()
	listTotal, listStale, listUpdated := m.listStore.Snapshot()

	lastUpdated := recUpdated
	if listUpdated.After(lastUpdated) {
		lastUpdated = listUpdated
	}

	return types.CacheStats{
		Records:      recTotal,
		StaleRecords: recStale,
		Lists:        listTotal,
		StaleLists:   listStale,
		LastUpdated:  lastUpdated,
	}
}

// PurgeIdle evicts entries in every store that have not been read
// within the horizon. Used by the cleanup worker.
func (m *Manager) PurgeIdle(horizon time.Duration) int {
	purged := m.recordStore.PurgeIdle(horizon) + m.listStore.PurgeIdle(horizon)
	if purged > 0 && m.logger != nil {
		m.logger.Cache().Info("Purged idle cache entries", "count", purged, "horizon", horizon)
	}
	return purged
}

// Reset drops everything. Exposed through the ops surface for support use.
func (m *Manager) Reset() {
	m.recordStore.Reset()
	m.listStore.Reset()
	if m.logger != nil {
		m.logger.Cache().Info("Cache reset")
	}
}
