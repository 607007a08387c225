// Package stores provides the specialized cache stores behind the manager.
package stores

import (
	"time"

	"github.com/caseboardhq/caseboard-go/internal/domain/entities/records"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/types"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/caseboardhq/caseboard-go/pkg/config"
)

// RecordStore manages the session record cache and its case number index.
type RecordStore struct {
	cache  *types.SessionRecordCache
	logger *logging.ChanneledLogger
}

func NewRecordStore(logger *logging.ChanneledLogger) *RecordStore {
	return &RecordStore{
		cache: &types.SessionRecordCache{
			Records:        make(map[string]*types.RecordEntry),
			CaseNumberToID: make(map[string]string),
			LastUpdated:    time.Now().UTC(),
		},
		logger: logger,
	}
}

// Get returns a record only while the entry is fresh. Stale or expired
// entries report a miss so the caller re-fetches.
func (s *RecordStore) Get(id string) (*records.CaseRecord, bool) {
	s.cache.Mu.RLock()
	entry, exists := s.cache.Records[id]
	s.cache.Mu.RUnlock()

	if !exists || entry.Stale {
		return nil, false
	}
	if time.Since(entry.FetchedAt) > config.RecordFreshTTL {
		return nil, false
	}

	s.cache.Mu.Lock()
	entry.LastAccessed = time.Now().UTC()
	s.cache.Mu.Unlock()

	return entry.Record, true
}

// Set stores a freshly fetched record and refreshes the case number index.
func (s *RecordStore) Set(record *records.CaseRecord) {
	now := time.Now().UTC()

	s.cache.Mu.Lock()
	defer s.cache.Mu.Unlock()

	s.cache.Records[record.ID] = &types.RecordEntry{
		Record:       record,
		FetchedAt:    now,
		LastAccessed: now,
	}
	if record.CaseNumber != "" {
		s.cache.CaseNumberToID[record.CaseNumber] = record.ID
	}
	s.cache.LastUpdated = now
}

// IDByCaseNumber resolves a human-facing case number to the canonical ID.
func (s *RecordStore) IDByCaseNumber(caseNumber string) (string, bool) {
	s.cache.Mu.RLock()
	defer s.cache.Mu.RUnlock()

	id, exists := s.cache.CaseNumberToID[caseNumber]
	return id, exists
}

// MarkStale flags an entry without evicting it, so a concurrent reader
// still holds a consistent snapshot while the re-fetch runs.
func (s *RecordStore) MarkStale(id string) {
	s.cache.Mu.Lock()
	defer s.cache.Mu.Unlock()

	if entry, exists := s.cache.Records[id]; exists {
		entry.Stale = true
	}
}

// Remove evicts a record and its case number index entry.
func (s *RecordStore) Remove(id string) {
	s.cache.Mu.Lock()
	defer s.cache.Mu.Unlock()

	if entry, exists := s.cache.Records[id]; exists {
		if entry.Record != nil && entry.Record.CaseNumber != "" {
			delete(s.cache.CaseNumberToID, entry.Record.CaseNumber)
		}
		delete(s.cache.Records, id)
		s.cache.LastUpdated = time.Now().UTC()
	}
}

// IDs returns the IDs of every cached record, fresh or stale.
func (s *RecordStore) IDs() []string {
	s.cache.Mu.RLock()
	defer s.cache.Mu.RUnlock()

	ids := make([]string, 0, len(s.cache.Records))
	for id := range s.cache.Records {
		ids = append(ids, id)
	}
	return ids
}

// PurgeIdle evicts entries not read since the horizon and returns the count.
func (s *RecordStore) PurgeIdle(horizon time.Duration) int {
	cutoff := time.Now().UTC().Add(-horizon)

	s.cache.Mu.Lock()
	defer s.cache.Mu.Unlock()

	var purged int
	for id, entry := range s.cache.Records {
		if entry.LastAccessed.Before(cutoff) {
			if entry.Record != nil && entry.Record.CaseNumber != "" {
				delete(s.cache.CaseNumberToID, entry.Record.CaseNumber)
			}
			delete(s.cache.Records, id)
			purged++
		}
	}
	if purged > 0 {
		s.cache.LastUpdated = time.Now().UTC()
	}
	return purged
}

// Reset drops every entry.
func (s *RecordStore) Reset() {
	s.cache.Mu.Lock()
	defer s.cache.Mu.Unlock()

	s.cache.Records = make(map[string]*types.RecordEntry)
	s.cache.CaseNumberToID = make(map[string]string)
	s.cache.LastUpdated = time.Now().UTC()
}

// Snapshot reports entry counts for the stats surface.
func (s *RecordStore) Snapshot() (total, stale int, lastUpdated time.Time) {
	s.cache.Mu.RLock()
	defer s.cache.Mu.RUnlock()

	for _, entry := range s.cache.Records {
		if entry.Stale {
			stale++
		}
	}
	return len(s.cache.Records), stale, s.cache.LastUpdated
}
