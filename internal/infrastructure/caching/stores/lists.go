package stores

import (
	"time"

	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/types"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/caseboardhq/caseboard-go/pkg/config"
)

// ListStore manages cached list query results keyed by filter signature.
type ListStore struct {
	cache  *types.SessionListCache
	logger *logging.ChanneledLogger
}

func NewListStore(logger *logging.ChanneledLogger) *ListStore {
	return &ListStore{
		cache: &types.SessionListCache{
			Lists:       make(map[string]*types.ListEntry),
			LastUpdated: time.Now().UTC(),
		},
		logger: logger,
	}
}

// Get returns the cached ID set for a list query while it is fresh.
func (s *ListStore) Get(key string) ([]string, bool) {
	s.cache.Mu.RLock()
	entry, exists := s.cache.Lists[key]
	s.cache.Mu.RUnlock()

	if !exists || entry.Stale {
		return nil, false
	}
	if time.Since(entry.FetchedAt) > config.ListFreshTTL {
		return nil, false
	}

	s.cache.Mu.Lock()
	entry.LastAccessed = time.Now().UTC()
	s.cache.Mu.Unlock()

	ids := make([]string, len(entry.RecordIDs))
	copy(ids, entry.RecordIDs)
	return ids, true
}

// Set stores a freshly fetched list result.
func (s *ListStore) Set(key string, recordIDs []string) {
	now := time.Now().UTC()
	ids := make([]string, len(recordIDs))
	copy(ids, recordIDs)

	s.cache.Mu.Lock()
	defer s.cache.Mu.Unlock()

	s.cache.Lists[key] = &types.ListEntry{
		RecordIDs:    ids,
		FetchedAt:    now,
		LastAccessed: now,
	}
	s.cache.LastUpdated = now
}

// MarkAllStale flags every cached list. List membership can change on
// any record mutation, so lists are always invalidated together.
func (s *ListStore) MarkAllStale() {
	s.cache.Mu.Lock()
	defer s.cache.Mu.Unlock()

	for _, entry := range s.cache.Lists {
		entry.Stale = true
	}
}

// Remove evicts one list result.
func (s *ListStore) Remove(key string) {
	s.cache.Mu.Lock()
	defer s.cache.Mu.Unlock()

	delete(s.cache.Lists, key)
	s.cache.LastUpdated = time.Now().UTC()
}

// PurgeIdle evicts list entries not read since the horizon.
func (s *ListStore) PurgeIdle(horizon time.Duration) int {
	cutoff := time.Now().UTC().Add(-horizon)

	s.cache.Mu.Lock()
	defer s.cache.Mu.Unlock()

	var purged int
	for key, entry := range s.cache.Lists {
		if entry.LastAccessed.Before(cutoff) {
			delete(s.cache.Lists, key)
			purged++
		}
	}
	if purged > 0 {
		s.cache.LastUpdated = time.Now().UTC()
	}
	return purged
}

// Reset drops every list entry.
func (s *ListStore) Reset() {
	s.cache.Mu.Lock()
	defer s.cache.Mu.Unlock()

	s.cache.Lists = make(map[string]*types.ListEntry)
	s.cache.LastUpdated = time.Now().UTC()
}

// Snapshot reports entry counts for the stats surface.
func (s *ListStore) Snapshot() (total, stale int, lastUpdated time.Time) {
	s.cache.Mu.RLock()
	defer s.cache.Mu.RUnlock()

	for _, entry := range s.cache.Lists {
		if entry.Stale {
			stale++
		}
	}
	return len(s.cache.Lists), stale, s.cache.LastUpdated
}
