package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport scripts channel outcomes and records calls.
type fakeTransport struct {
	mu           sync.Mutex
	primaryErr   error
	fallbackErr  error
	authToken    string
	tableCalls   int
	topicCalls   int
	rowHandler   func(RowEvent)
	msgHandler   func(BroadcastMessage)
	disconnectFn func(error)
	unsubscribes int
}

type fakeSubscription struct{ transport *fakeTransport }

func (s *fakeSubscription) Unsubscribe() error {
	s.transport.mu.Lock()
	defer s.transport.mu.Unlock()
	s.transport.unsubscribes++
	return nil
}

func (f *fakeTransport) SetAuth(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authToken = token
}

func (f *fakeTransport) SubscribeTable(_ context.Context, _ string, onEvent func(RowEvent)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tableCalls++
	if f.primaryErr != nil {
		return nil, f.primaryErr
	}
	f.rowHandler = onEvent
	return &fakeSubscription{transport: f}, nil
}

func (f *fakeTransport) SubscribeTopic(_ context.Context, _ string, onEvent func(BroadcastMessage), onStatus func(Status)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topicCalls++
	if f.fallbackErr != nil {
		if onStatus != nil {
			onStatus(StatusChannelError)
		}
		return nil, f.fallbackErr
	}
	f.msgHandler = onEvent
	if onStatus != nil {
		onStatus(StatusSubscribed)
	}
	return &fakeSubscription{transport: f}, nil
}

func (f *fakeTransport) OnDisconnect(fn func(error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnectFn = fn
}

func (f *fakeTransport) Close() error { return nil }

func newTestSubscriber(transport Transport) *Subscriber {
	cfg := &SubscriberConfig{Table: "investigations", Topic: "investigations-changes"}
	tokenFn := func() (string, error) { return "test-token", nil }
	return NewSubscriber(transport, cfg, tokenFn, nil)
}

func TestSubscriber_PrimaryChannelPreferred(t *testing.T) {
	transport := &fakeTransport{}
	sub := newTestSubscriber(transport)

	require.NoError(t, sub.Acquire(context.Background()))

	assert.Equal(t, StateConnectedPrimary, sub.State())
	assert.Equal(t, ChannelPrimary, sub.ActiveChannel())
	assert.Equal(t, 1, transport.tableCalls)
	assert.Equal(t, 0, transport.topicCalls)
}

func TestSubscriber_FallsBackWhenPrimaryFails(t *testing.T) {
	transport := &fakeTransport{primaryErr: errors.New("row-level subscriptions disabled")}
	sub := newTestSubscriber(transport)

	require.NoError(t, sub.Acquire(context.Background()))

	assert.Equal(t, StateConnectedFallback, sub.State())
	assert.Equal(t, ChannelFallback, sub.ActiveChannel())
	assert.Equal(t, 1, transport.tableCalls)
	assert.Equal(t, 1, transport.topicCalls)
	assert.Equal(t, "test-token", transport.authToken, "fallback handshake must carry the auth token")
}

func TestSubscriber_BothChannelsFail(t *testing.T) {
	transport := &fakeTransport{
		primaryErr:  errors.New("primary down"),
		fallbackErr: errors.New("fallback down"),
	}
	sub := newTestSubscriber(transport)

	err := sub.Acquire(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateIdle, sub.State())
}

func TestSubscriber_RefCountSharesOneSubscription(t *testing.T) {
	transport := &fakeTransport{}
	sub := newTestSubscriber(transport)

	require.NoError(t, sub.Acquire(context.Background()))
	require.NoError(t, sub.Acquire(context.Background()))
	require.NoError(t, sub.Acquire(context.Background()))
	assert.Equal(t, 1, transport.tableCalls, "consumers share one subscription")

	sub.Release()
	sub.Release()
	assert.Equal(t, StateConnectedPrimary, sub.State())
	assert.Equal(t, 0, transport.unsubscribes)

	sub.Release()
	assert.Equal(t, StateIdle, sub.State())
	assert.Equal(t, 1, transport.unsubscribes)
}

func TestSubscriber_NormalizesRowEvents(t *testing.T) {
	transport := &fakeTransport{}
	sub := newTestSubscriber(transport)

	var got []ChangeEvent
	sub.OnEvent(func(ev ChangeEvent) { got = append(got, ev) })
	require.NoError(t, sub.Acquire(context.Background()))

	transport.rowHandler(RowEvent{
		Type:   "UPDATE",
		Table:  "investigations",
		Record: map[string]any{"id": "rec-1", "title": "updated"},
	})
	transport.rowHandler(RowEvent{
		Type: "DELETE",
		Old:  map[string]any{"id": "rec-2"},
	})
	transport.rowHandler(RowEvent{Type: "UPDATE"}) // no record ID, dropped

	require.Len(t, got, 2)
	assert.Equal(t, "rec-1", got[0].RecordID)
	assert.Equal(t, EventUpdate, got[0].Kind)
	assert.Equal(t, "rec-2", got[1].RecordID)
	assert.Equal(t, EventDelete, got[1].Kind)
	assert.NotEmpty(t, got[0].Ref)
}

func TestSubscriber_NormalizesBroadcasts(t *testing.T) {
	transport := &fakeTransport{primaryErr: errors.New("primary down")}
	sub := newTestSubscriber(transport)

	var got []ChangeEvent
	sub.OnEvent(func(ev ChangeEvent) { got = append(got, ev) })
	require.NoError(t, sub.Acquire(context.Background()))

	transport.msgHandler(BroadcastMessage{
		Event:   "record-changed",
		Payload: map[string]any{"recordId": "rec-9", "operation": "INSERT"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "rec-9", got[0].RecordID)
	assert.Equal(t, EventCreate, got[0].Kind)
}

func TestSubscriber_DropNotifiesSupervisorHook(t *testing.T) {
	transport := &fakeTransport{}
	sub := newTestSubscriber(transport)

	var dropped int
	sub.OnDrop(func(error) { dropped++ })
	require.NoError(t, sub.Acquire(context.Background()))

	transport.disconnectFn(errors.New("connection reset"))
	assert.Equal(t, 1, dropped)
	assert.Equal(t, StateIdle, sub.State())

	// Without consumers a disconnect is not reported.
	sub.Release()
	transport.disconnectFn(errors.New("connection reset"))
	assert.Equal(t, 1, dropped)
}
