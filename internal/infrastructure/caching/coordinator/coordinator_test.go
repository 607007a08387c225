package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseboardhq/caseboard-go/internal/domain/entities/records"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/types"
)

// stubCache records which scopes were marked stale.
type stubCache struct {
	mu          sync.Mutex
	staleIDs    []string
	listsMarked int
}

func (s *stubCache) MarkRecordStale(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staleIDs = append(s.staleIDs, id)
}

func (s *stubCache) MarkListsStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listsMarked++
}

func (s *stubCache) GetRecord(string) (*records.CaseRecord, bool) { return nil, false }
func (s *stubCache) SetRecord(*records.CaseRecord) {}
func (s *stubCache) GetRecordIDByCaseNumber(string) (string, bool) { return "", false }
func (s *stubCache) RemoveRecord(string) {}
func (s *stubCache) RecordIDs() []string { return nil }
func (s *stubCache) GetList(string) ([]string, bool) { return nil, false }
func (s *stubCache) SetList(string, []string) {}
func (s *stubCache) RemoveList(string) {}
func (s *stubCache) Stats() types.CacheStats { return types.CacheStats{} }
func (s *stubCache) PurgeIdle(time.Duration) int { return 0 }
func (s *stubCache) Reset() {}

func startCoordinator(t *testing.T, recordWindow, listWindow time.Duration) (*Coordinator, *stubCache, *atomic.Int64, *atomic.Int64) {
	t.Helper()

	cache := &stubCache{}
	cfg := &Config{
		RecordQuietWindow: recordWindow,
		ListQuietWindow:   listWindow,
		QueueSize:         256,
	}

	c := New(cache, cfg, nil)
	var recordRefreshes, listRefreshes atomic.Int64
	c.OnRecordRefresh(func(string) { recordRefreshes.Add(1) })
	c.OnListRefresh(func() { listRefreshes.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go c.Start(ctx)

	return c, cache, &recordRefreshes, &listRefreshes
}

func TestCoordinator_StormCollapsesToSingleRefresh(t *testing.T) {
	c, cache, recordRefreshes, listRefreshes := startCoordinator(t, 200*time.Millisecond, 200*time.Millisecond)

	for i := 0; i < 10; i++ {
		c.Invalidate("rec-1")
	}

	require.Eventually(t, func() bool {
		return recordRefreshes.Load() == 1 && listRefreshes.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// The rest of the storm must stay absorbed.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), recordRefreshes.Load())
	assert.Equal(t, int64(1), listRefreshes.Load())

	cache.mu.Lock()
	defer cache.mu.Unlock()
	assert.Equal(t, []string{"rec-1"}, cache.staleIDs)
	assert.Equal(t, 1, cache.listsMarked)

	stats := c.Snapshot()
	assert.Equal(t, int64(1), stats.Honored)
	assert.Equal(t, int64(9), stats.Suppressed)
}

func TestCoordinator_SpacedCallsEachHonored(t *testing.T) {
	c, _, recordRefreshes, _ := startCoordinator(t, 20*time.Millisecond, 20*time.Millisecond)

	for i := 0; i < 3; i++ {
		c.Invalidate("rec-1")
		time.Sleep(40 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return recordRefreshes.Load() == 3
	}, time.Second, 5*time.Millisecond)
}

func TestCoordinator_DistinctRecordsDebouncedIndependently(t *testing.T) {
	c, cache, recordRefreshes, _ := startCoordinator(t, 200*time.Millisecond, 200*time.Millisecond)

	c.Invalidate("rec-1")
	c.Invalidate("rec-2")
	c.Invalidate("rec-1")
	c.Invalidate("rec-2")

	require.Eventually(t, func() bool {
		return recordRefreshes.Load() == 2
	}, time.Second, 5*time.Millisecond)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	assert.ElementsMatch(t, []string{"rec-1", "rec-2"}, cache.staleIDs)
}

func TestCoordinator_ListOnlyInvalidationSkipsRecords(t *testing.T) {
	c, cache, recordRefreshes, listRefreshes := startCoordinator(t, 200*time.Millisecond, 200*time.Millisecond)

	c.InvalidateList()

	require.Eventually(t, func() bool {
		return listRefreshes.Load() == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int64(0), recordRefreshes.Load())

	cache.mu.Lock()
	defer cache.mu.Unlock()
	assert.Empty(t, cache.staleIDs)
}

func TestCoordinator_RecordInvalidationImpliesList(t *testing.T) {
	c, cache, _, listRefreshes := startCoordinator(t, 200*time.Millisecond, 200*time.Millisecond)

	c.Invalidate("rec-1")

	require.Eventually(t, func() bool {
		return listRefreshes.Load() == 1
	}, time.Second, 5*time.Millisecond)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	assert.Equal(t, 1, cache.listsMarked)
}
