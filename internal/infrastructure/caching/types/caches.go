// Package types defines the shared cache data structures.
package types

import (
	"sync"
	"time"

	"github.com/caseboardhq/caseboard-go/internal/domain/entities/records"
)

// RecordEntry wraps a single cached case record together with its
// freshness bookkeeping.
type RecordEntry struct {
	Record       *records.CaseRecord
	FetchedAt    time.Time
	LastAccessed time.Time
	Stale        bool
}

// ListEntry caches the result of one list query, keyed by its filter
// signature. Only the record IDs are stored; the records themselves
// live in the record cache.
type ListEntry struct {
	RecordIDs    []string
	FetchedAt    time.Time
	LastAccessed time.Time
	Stale        bool
}

// SessionRecordCache holds every cached record for the portal session
// plus the lookup index from case number to canonical ID.
type SessionRecordCache struct {
	Records        map[string]*RecordEntry
	CaseNumberToID map[string]string
	LastUpdated    time.Time
	Mu             sync.RWMutex
}

// SessionListCache holds the cached list query results for the session.
type SessionListCache struct {
	Lists       map[string]*ListEntry
	LastUpdated time.Time
	Mu          sync.RWMutex
}

// CacheStats is a point-in-time snapshot used by the cleanup reporter
// and the ops status endpoint.
type CacheStats struct {
	Records      int       `json:"records"`
	StaleRecords int       `json:"staleRecords"`
	Lists        int       `json:"lists"`
	StaleLists   int       `json:"staleLists"`
	LastUpdated  time.Time `json:"lastUpdated"`
}
