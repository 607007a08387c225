// Package interfaces defines cache contracts
package interfaces

import (
	"time"

	"github.com/caseboardhq/caseboard-go/internal/domain/entities/records"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/types"
)

// Cache defines the complete cache interface consumed by repositories,
// the invalidation coordinator and the ops surface.
type Cache interface {
	RecordCache
	ListCache

	Stats() types.CacheStats
	PurgeIdle(horizon time.Duration) int
	Reset()
}

// RecordCache covers single-record operations. Get misses on stale or
// expired entries so callers fall through to the repository.
type RecordCache interface {
	GetRecord(id string) (*records.CaseRecord, bool)
	SetRecord(record *records.CaseRecord)
	GetRecordIDByCaseNumber(caseNumber string) (string, bool)
	MarkRecordStale(id string)
	RemoveRecord(id string)
	RecordIDs() []string
}

// ListCache covers list query results, keyed by filter signature.
type ListCache interface {
	GetList(key string) ([]string, bool)
	SetList(key string, recordIDs []string)
	MarkListsStale()
	RemoveList(key string)
}
