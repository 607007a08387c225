package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseboardhq/caseboard-go/internal/domain/entities/records"
	"github.com/caseboardhq/caseboard-go/internal/domain/events"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/coordinator"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/manager"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/realtime"
)

// fakeRepo is an in-memory repositories.RecordRepository that counts loads.
type fakeRepo struct {
	mu      sync.Mutex
	byID    map[string]*records.CaseRecord
	loads   int
	listing int
	findErr error
}

func newFakeRepo(recs ...*records.CaseRecord) *fakeRepo {
	r := &fakeRepo{byID: make(map[string]*records.CaseRecord)}
	for _, rec := range recs {
		r.byID[rec.ID] = rec
	}
	return r
}

func (r *fakeRepo) FindByID(id string) (*records.CaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.loads++
	return r.byID[id], nil
}

func (r *fakeRepo) setFindErr(err error) {
	r.mu.Lock()
	r.findErr = err
	r.mu.Unlock()
}

func (r *fakeRepo) FindByCaseNumber(caseNumber string) (*records.CaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.byID {
		if rec.CaseNumber == caseNumber {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindAll() ([]*records.CaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listing++
	out := make([]*records.CaseRecord, 0, len(r.byID))
	for _, rec := range r.byID {
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeRepo) Store(rec *records.CaseRecord) error  { r.set(rec); return nil }
func (r *fakeRepo) Update(rec *records.CaseRecord) error { r.set(rec); return nil }

func (r *fakeRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

func (r *fakeRepo) set(rec *records.CaseRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[rec.ID] = rec
}

func (r *fakeRepo) loadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}

// fakeBroadcaster records pushed messages.
type fakeBroadcaster struct {
	mu      sync.Mutex
	changes []events.RecordChange
	lists   int
}

func (b *fakeBroadcaster) AddClient(string) chan string { return make(chan string, 1) }
func (b *fakeBroadcaster) RemoveClient(chan string, string) {}
func (b *fakeBroadcaster) ConnectionCount() int { return 0 }
func (b *fakeBroadcaster) BroadcastListChange() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
}

func (b *fakeBroadcaster) BroadcastRecordChange(change events.RecordChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, change)
}

// scriptedTransport always succeeds on the primary channel.
type scriptedTransport struct {
	mu         sync.Mutex
	rowHandler func(realtime.RowEvent)
	subscribes int
}

type scriptedSub struct{}

func (scriptedSub) Unsubscribe() error { return nil }

func (t *scriptedTransport) SetAuth(string) {}
func (t *scriptedTransport) SubscribeTable(_ context.Context, _ string, onEvent func(realtime.RowEvent)) (realtime.Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rowHandler = onEvent
	t.subscribes++
	return scriptedSub{}, nil
}

func (t *scriptedTransport) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subscribes
}

func (t *scriptedTransport) SubscribeTopic(_ context.Context, _ string, _ func(realtime.BroadcastMessage), onStatus func(realtime.Status)) (realtime.Subscription, error) {
	if onStatus != nil {
		onStatus(realtime.StatusSubscribed)
	}
	return scriptedSub{}, nil
}

func (t *scriptedTransport) OnDisconnect(func(error)) {}
func (t *scriptedTransport) Close() error { return nil }

func (t *scriptedTransport) emit(ev realtime.RowEvent) {
	t.mu.Lock()
	fn := t.rowHandler
	t.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func quietLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToConsole = false
	cfg.DefaultLevel = slog.LevelError
	logger, err := logging.NewChanneledLogger(cfg)
	require.NoError(t, err)
	return logger
}

type syncFixture struct {
	svc       *SyncService
	repo      *fakeRepo
	transport *scriptedTransport
	broadcast *fakeBroadcaster
	cache     *manager.Manager
}

func newSyncFixture(t *testing.T, window time.Duration, recs ...*records.CaseRecord) *syncFixture {
	t.Helper()

	logger := quietLogger(t)
	repo := newFakeRepo(recs...)
	cache := manager.NewManager(logger)

	coord := coordinator.New(cache, &coordinator.Config{
		RecordQuietWindow: window,
		ListQuietWindow:   window,
		QueueSize:         64,
	}, logger)

	transport := &scriptedTransport{}
	subscriber := realtime.NewSubscriber(transport, &realtime.SubscriberConfig{
		Table: "investigations",
		Topic: "investigations-changes",
	}, func() (string, error) { return "token", nil }, logger)

	supervisor := realtime.NewSupervisor(subscriber, &realtime.SupervisorConfig{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	}, logger)

	broadcast := &fakeBroadcaster{}
	svc := NewSyncService(NewRecordService(repo, logger), cache, coord, subscriber, supervisor, broadcast, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	svc.Start(ctx)

	return &syncFixture{svc: svc, repo: repo, transport: transport, broadcast: broadcast, cache: cache}
}

func watchedRecord(id, caseNumber, title string) *records.CaseRecord {
	return &records.CaseRecord{
		ID:          id,
		CaseNumber:  caseNumber,
		Title:       title,
		Category:    records.CategoryWantedPerson,
		Priority:    records.PriorityNormal,
		Description: "Subject of an active warrant.",
		Contact:     records.ContactInfo{Person: "Desk 12", Phone: "+36 1 000 0000"},
	}
}

func TestSyncService_WatchDeliversUpdates(t *testing.T) {
	rec := watchedRecord("11111111-2222-3333-4444-555555555555", "2026-K-700", "Original title")
	f := newSyncFixture(t, 5*time.Millisecond, rec)

	handle, err := f.svc.Watch(context.Background(), rec.ID)
	require.NoError(t, err)
	defer handle.Close()
	assert.Equal(t, "Original title", handle.Record().Title)

	// Upstream edit arrives as a change event.
	updated := watchedRecord(rec.ID, rec.CaseNumber, "Amended title")
	f.repo.set(updated)
	f.transport.emit(realtime.RowEvent{
		Type:   "UPDATE",
		Record: map[string]any{"id": rec.ID},
	})

	select {
	case got := <-handle.Updates():
		require.NotNil(t, got)
		assert.Equal(t, "Amended title", got.Title)
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
	assert.Equal(t, "Amended title", handle.Record().Title)
}

func TestSyncService_WatchByCaseNumber(t *testing.T) {
	rec := watchedRecord("99999999-8888-7777-6666-555555555555", "2026-K-710", "Case number lookup")
	f := newSyncFixture(t, 5*time.Millisecond, rec)

	handle, err := f.svc.Watch(context.Background(), "2026-K-710")
	require.NoError(t, err)
	defer handle.Close()
	assert.Equal(t, rec.ID, handle.Record().ID)
}

func TestSyncService_WatchUnknownKeyRunsDegraded(t *testing.T) {
	rec := watchedRecord("definitely-not-a-key", "2026-K-555", "Odd identifier")
	f := newSyncFixture(t, 5*time.Millisecond, rec)

	handle, err := f.svc.Watch(context.Background(), "definitely-not-a-key")
	require.NoError(t, err)
	defer handle.Close()

	// The fetch worked but no live subscription was opened for it.
	assert.Equal(t, rec.ID, handle.Record().ID)
	assert.Equal(t, 0, f.transport.calls(), "degraded watch must not subscribe")
}

func TestSyncService_WatchUnknownKeyMissing(t *testing.T) {
	f := newSyncFixture(t, 5*time.Millisecond)

	_, err := f.svc.Watch(context.Background(), "definitely-not-a-key")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSyncService_WatchMissingRecord(t *testing.T) {
	f := newSyncFixture(t, 5*time.Millisecond)

	_, err := f.svc.Watch(context.Background(), "11111111-2222-3333-4444-555555555555")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSyncService_DeleteDeliversNil(t *testing.T) {
	rec := watchedRecord("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", "2026-K-720", "To be deleted")
	f := newSyncFixture(t, 5*time.Millisecond, rec)

	handle, err := f.svc.Watch(context.Background(), rec.ID)
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, f.repo.Delete(rec.ID))
	f.transport.emit(realtime.RowEvent{
		Type: "DELETE",
		Old:  map[string]any{"id": rec.ID},
	})

	select {
	case got := <-handle.Updates():
		assert.Nil(t, got, "delete is signalled with a nil update")
	case <-time.After(time.Second):
		t.Fatal("no delete notification delivered")
	}
	assert.Nil(t, handle.Record())
}

func TestSyncService_RefreshFailureSurfacesOnHandle(t *testing.T) {
	rec := watchedRecord("bbbbbbbb-cccc-dddd-eeee-ffffffffffff", "2026-K-725", "Flaky backend")
	f := newSyncFixture(t, 5*time.Millisecond, rec)

	handle, err := f.svc.Watch(context.Background(), rec.ID)
	require.NoError(t, err)
	defer handle.Close()
	require.NoError(t, handle.Err())

	f.repo.setFindErr(errors.New("store unavailable"))
	f.transport.emit(realtime.RowEvent{Type: "UPDATE", Record: map[string]any{"id": rec.ID}})

	require.Eventually(t, func() bool {
		return handle.Err() != nil
	}, time.Second, 5*time.Millisecond)

	// The stale snapshot stays readable and a later success clears the error.
	assert.Equal(t, "Flaky backend", handle.Record().Title)
	f.repo.setFindErr(nil)
	time.Sleep(10 * time.Millisecond)
	handle.Refetch()

	require.Eventually(t, func() bool {
		return handle.Err() == nil
	}, time.Second, 5*time.Millisecond)
}

func TestSyncService_ChangeStormCollapses(t *testing.T) {
	rec := watchedRecord("12121212-3434-5656-7878-909090909090", "2026-K-730", "Storm target")
	f := newSyncFixture(t, 250*time.Millisecond, rec)

	handle, err := f.svc.Watch(context.Background(), rec.ID)
	require.NoError(t, err)
	defer handle.Close()

	baseline := f.repo.loadCount()
	for i := 0; i < 20; i++ {
		f.transport.emit(realtime.RowEvent{Type: "UPDATE", Record: map[string]any{"id": rec.ID}})
	}

	require.Eventually(t, func() bool {
		return f.repo.loadCount() == baseline+1
	}, time.Second, 5*time.Millisecond, "a change storm must trigger exactly one re-fetch")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, baseline+1, f.repo.loadCount())

	// Every event still reaches the session broadcast.
	f.broadcast.mu.Lock()
	defer f.broadcast.mu.Unlock()
	assert.Len(t, f.broadcast.changes, 20)
}

func TestSyncService_RefetchGoesThroughQuietWindow(t *testing.T) {
	rec := watchedRecord("fedcba98-7654-3210-fedc-ba9876543210", "2026-K-740", "Refetch target")
	f := newSyncFixture(t, 250*time.Millisecond, rec)

	handle, err := f.svc.Watch(context.Background(), rec.ID)
	require.NoError(t, err)
	defer handle.Close()

	baseline := f.repo.loadCount()
	handle.Refetch()
	handle.Refetch()
	handle.Refetch()

	require.Eventually(t, func() bool {
		return f.repo.loadCount() == baseline+1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, baseline+1, f.repo.loadCount(), "rapid refetches collapse into one load")
}
